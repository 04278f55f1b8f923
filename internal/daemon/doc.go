// Package daemon coordinates the long-running downyoutube process.
//
// It wraps the workflow manager in a flock-guarded lifecycle so only one
// daemon owns a state directory, and serves the JSON HTTP API the CLI and web
// clients use. Handlers translate error classes into HTTP statuses: input
// errors are 400, unknown tasks and files are 404, and state conflicts such
// as cancelling a task that already started are 409.
package daemon
