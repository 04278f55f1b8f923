// Package workflow turns submitted URLs into executed tasks.
//
// Two regimes share one execution path. Batch submissions go through the
// queue and are drained by a single worker goroutine, so at most one batch
// task runs at a time. Immediate submissions each get their own goroutine,
// optionally bounded by workflow.max_immediate. Either way a task is executed
// by execute, which dispatches to the single-item download or the playlist
// expander and always leaves the task in a terminal status.
//
// Fetcher progress arrives through progressReporter, which maps byte counts
// and phases onto the task store. Finished tasks are appended to the history
// store when one is configured.
package workflow
