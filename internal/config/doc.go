// Package config defines the format-agnostic run parameters of a simulation,
// along with the Loader interface implemented by the format-specific
// adapters (HCL, TOML).
//
// Parameters is the single source of truth consumed by every preloop
// builder. It is immutable once loaded; builders read typed values through
// the getters, which convert between cty types so that e.g. a TOML string
// "0.05" and an HCL number 0.05 resolve identically.
package config
