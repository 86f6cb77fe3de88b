// Package toml_adapter loads run parameters from TOML files. Top-level keys
// become parameters; nested tables are flattened with an underscore, so
//
//	[TIME]
//	DELTA_T = 0.05
//
// is equivalent to TIME_DELTA_T = 0.05.
package toml_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/fsutil"
)

// Loader is the TOML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new TOML parameter loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extension implements config.Loader.
func (l *Loader) Extension() string {
	return ".toml"
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Parameters, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.Collect(paths, l.Extension())
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered TOML files.", "count", len(files))

	merged := config.NewParameters(nil, "")
	for _, file := range files {
		var raw map[string]any
		md, err := toml.DecodeFile(file, &raw)
		if err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", file, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			logger.Warn("Ignoring undecoded TOML keys.", "file", file, "keys", fmt.Sprint(undecoded))
		}
		params, err := Decode(raw, file)
		if err != nil {
			return nil, err
		}
		merged = merged.Merge(params)
	}
	return merged, nil
}

// Decode flattens a decoded TOML document into a parameter set.
func Decode(raw map[string]any, origin string) (*config.Parameters, error) {
	flat := make(map[string]any)
	flatten("", raw, flat)
	params, err := config.FromMap(flat, origin)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", origin, err)
	}
	return params, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "_" + k
		}
		if table, ok := in[k].(map[string]any); ok {
			flatten(name, table, out)
			continue
		}
		out[name] = in[k]
	}
}
