// Package preflight provides readiness checks for the filesystem paths and
// external tools downyoutube depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start; the CLI status command renders the same results. Individual checks
// (CheckDirectoryAccess, CheckFreeSpace, CheckYtdlpVersion) are exported for
// callers that only need one of them.
package preflight
