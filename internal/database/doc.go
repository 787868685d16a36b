// Package database provides SQLite-based storage for mirror state.
//
// This package implements the StateDB, which stores:
//   - The latest content hash of every mirrored page and resource
//   - A history of mirror runs with their counters
//
// Hash comparison against the previous run is what makes incremental
// mirroring possible: unchanged pages are counted but not rewritten.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
