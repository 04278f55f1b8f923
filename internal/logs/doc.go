// Package logs reads the daemon log file for the `downyoutube logs` command
// and the /api/logs endpoint.
//
// A negative offset returns the last N lines; a non-negative offset resumes
// from a previous read. When the file shrinks below the offset (lumberjack
// rotated it) reading restarts from the top of the new file.
package logs
