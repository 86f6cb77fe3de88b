package config

import "context"

// Loader is the interface for a format-specific parameter loader.
type Loader interface {
	// Load reads every parameter file found under the given paths and
	// returns the merged, immutable parameter set. Later files override
	// earlier ones key by key.
	Load(ctx context.Context, paths ...string) (*Parameters, error)

	// Extension is the file extension (including the dot) this loader
	// understands, e.g. ".hcl".
	Extension() string
}
