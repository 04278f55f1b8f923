// Package api defines the wire-format types shared by the daemon HTTP server
// and the CLI, the converters from internal task, queue and workflow models,
// and a small HTTP client.
//
// Task fields use camelCase JSON keys. The envelope keys task_id, queue_size
// and total_items keep the names existing web clients already read.
// Timestamps are RFC3339 with milliseconds in UTC.
package api
