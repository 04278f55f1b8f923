// Package history keeps a durable SQLite log of finished tasks so completed
// downloads can be listed after a restart. Live task state stays in memory;
// this package only ever receives terminal records.
//
// Schema changes bump schemaVersion in schema.go. Older databases are rejected
// with ErrSchemaMismatch and must be deleted to be recreated.
package history
