package config

import (
	"context"
	"fmt"

	"github.com/vk/axisem/internal/ctxlog"
)

// Dispatcher combines several format-specific loaders. Each loader picks up
// the files carrying its own extension; results are merged in the order the
// loaders were given, so a key defined by a later format wins.
type Dispatcher struct {
	loaders []Loader
}

// NewDispatcher creates a Dispatcher over the given loaders.
func NewDispatcher(loaders ...Loader) *Dispatcher {
	return &Dispatcher{loaders: loaders}
}

// Extension implements Loader. A Dispatcher has no single extension.
func (d *Dispatcher) Extension() string {
	return ""
}

// Load implements Loader.
func (d *Dispatcher) Load(ctx context.Context, paths ...string) (*Parameters, error) {
	logger := ctxlog.FromContext(ctx)
	merged := NewParameters(nil, "")
	for _, l := range d.loaders {
		params, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, fmt.Errorf("loading %s parameters: %w", l.Extension(), err)
		}
		logger.Debug("Parameters loaded.", "format", l.Extension(), "count", params.Len())
		merged = merged.Merge(params)
	}
	if merged.Len() == 0 {
		return nil, fmt.Errorf("no parameters found in %v", paths)
	}
	return merged, nil
}
