//go:build release

package resources

const auditAllocations = false
