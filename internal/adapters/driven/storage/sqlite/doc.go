// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite and implements several stores through a
// single database connection:
//
//   - EmbeddingStore: document records and their embeddings
//   - IndexStore: per-user index artifacts, one row per user_id/blob_name
//   - SchedulerStore: periodic rebuild schedule and run history
//
// # Embeddings
//
// Vectors written by this package are float32 little-endian BLOBs. Rows written
// by other tools may hold JSON text such as "[0.1, 0.2]". Both forms are
// normalised into domain.Embedding when read; text that does not parse becomes
// an Unparseable embedding.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docrag/data/docrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
