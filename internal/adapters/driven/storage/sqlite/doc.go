// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: raw document persistence
//   - IndexStore: extracted record persistence and predicate search
//   - TraceStore: continuous waveform trace index
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// Record attributes live in a JSON column and are searched through
// json_extract with per-type CASTs. Predicate values are always bound
// parameters, never interpolated.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
