//go:build !release

package resources

// auditAllocations enables the time-loop allocation check.
const auditAllocations = true
