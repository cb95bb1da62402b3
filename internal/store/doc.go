// Package store provides SQLite-backed storage for compilation results.
//
// The store is an append-only log of compilations. Each row records the
// unit name, the hash of its source, whether the optimizer ran, and either
// the canonical JSON IR with its fingerprint or the compile error.
//
// Ordering uses a logical seq column, never timestamps. Lookup only reuses
// IR whose ir_version is compatible with the running build (see
// ir.Compatible).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection: one writer, no SQLITE_BUSY between goroutines
package store
