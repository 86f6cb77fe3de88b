// Package plancache persists transform plans between runs.
//
// Computing twiddle tables for every transform length up to the largest
// azimuthal ring is repeated work on every launch; the cache lets a rank
// restore them instead. The cache is advisory:
//
//   - A missing cache is normal on the first run.
//   - An unreadable or corrupt cache is reported and the plans are rebuilt.
//   - Failing to write the cache back is an error, since a run that cannot
//     write its develop directory will fail later anyway.
//
// Two implementations are provided: SQLiteStore, a single-file database
// under the run's develop directory, and MemoryStore for tests and runs
// without an output directory.
package plancache
