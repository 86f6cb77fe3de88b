// Package hcl_adapter loads run parameters from HCL files. A parameter file
// is a flat list of attributes:
//
//	TIME_DELTA_T        = 0.05
//	SOURCE_STF_TYPE     = "gauss"
//	OUT_STATIONS        = ["II.AAK 42.6 74.5 0", "IU.ANMO 34.9 -106.5 0"]
//
// Blocks are rejected. An expression may refer to other parameters, either
// from the same file or from a file loaded earlier, and may call a small set
// of numeric and string functions:
//
//	SOURCE_STF_HALF_DURATION = 10
//	TIME_RECORD_LENGTH       = max(1800, SOURCE_STF_HALF_DURATION * 100)
package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/dag"
	"github.com/vk/axisem/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL parameter loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extension implements config.Loader.
func (l *Loader) Extension() string {
	return ".hcl"
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Parameters, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.Collect(paths, l.Extension())
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	merged := config.NewParameters(nil, "")
	for _, file := range files {
		params, err := l.loadFile(parser, file, merged)
		if err != nil {
			return nil, err
		}
		merged = merged.Merge(params)
	}

	logger.Debug("HCL loading complete.", "parameters", merged.Len())
	return merged, nil
}

// loadFile parses a single file and evaluates its attributes.
func (l *Loader) loadFile(parser *hclparse.Parser, file string, base *config.Parameters) (*config.Parameters, error) {
	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}
	return Decode(hclFile.Body, file, base)
}

// Decode evaluates every attribute of body into a parameter set. Attributes
// are evaluated in dependency order; a reference resolves to an attribute of
// body first and to base otherwise. base may be nil.
func Decode(body hcl.Body, origin string, base *config.Parameters) (*config.Parameters, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", origin, diags)
	}

	order, err := evaluationOrder(attrs, base)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters in %s: %w", origin, err)
	}

	vars := make(map[string]cty.Value, len(attrs))
	if base != nil {
		for _, k := range base.Keys() {
			if v, ok := base.Value(k); ok {
				vars[k] = v
			}
		}
	}
	values := make(map[string]cty.Value, len(attrs))
	for _, name := range order {
		attr := attrs[name]
		val, diags := attr.Expr.Value(evalContext(vars))
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for %s in %s: %w", name, origin, diags)
		}
		values[name] = val
		vars[name] = val
	}
	return config.NewParameters(values, origin), nil
}

// evaluationOrder sorts the attribute names so every attribute follows the
// attributes it refers to.
func evaluationOrder(attrs hcl.Attributes, base *config.Parameters) ([]string, error) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	g := dag.New()
	for _, name := range names {
		g.AddNode(name)
	}
	for _, name := range names {
		expr := attrs[name].Expr
		if err := checkCalls(name, expr); err != nil {
			return nil, err
		}
		for _, ref := range references(expr) {
			if _, ok := attrs[ref]; ok {
				if err := g.AddEdge(ref, name); err != nil {
					return nil, fmt.Errorf("%s refers to itself", name)
				}
				continue
			}
			if !base.Has(ref) {
				return nil, fmt.Errorf("%s refers to unknown parameter %s", name, ref)
			}
		}
	}
	return g.TopologicalSort()
}
