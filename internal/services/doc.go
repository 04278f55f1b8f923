// Package services defines shared utilities consumed by the task execution
// paths, the HTTP layer, and the media integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so input, not-found,
//     conflict, and fetch failures stay distinguishable all the way out to
//     the submitter.
//
// Use these helpers when wiring new execution logic so operational behaviour
// (error classification, observability) stays uniform across the engine.
package services
