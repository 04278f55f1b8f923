// Package tasks holds the task data model and the in-memory Task Store that
// every execution path writes through and every status query reads from.
//
// The store is constructed once per process and injected where needed. It
// enforces the record invariants itself (bounded monotonic progress, forward
// only status transitions, immutable terminal records) so concurrent writers
// such as progress callbacks and completion handlers cannot corrupt a task.
package tasks
