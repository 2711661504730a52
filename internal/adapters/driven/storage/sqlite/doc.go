// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database holds:
//
//   - IndexStore: the chunk index (chunks + index_meta)
//   - TranscriptStore: answered questions
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.bookchat/data/bookchat.db
package sqlite
