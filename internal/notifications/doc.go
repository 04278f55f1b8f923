// Package notifications pushes workflow events to ntfy.
//
// NewService returns a no-op Service when no topic is configured, so the
// workflow can publish unconditionally. Per-task and drained-queue events can
// be switched off independently in the [notifications] config section.
package notifications
