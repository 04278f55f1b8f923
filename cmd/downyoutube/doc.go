// Package main hosts the downyoutube CLI entrypoint and command graph.
//
// `downyoutube serve` runs the daemon in the foreground. Every other command
// is a thin client of the daemon HTTP API: it resolves the server URL and
// bearer token from configuration (or --server) and renders responses as
// tables, or as JSON with --json.
package main
