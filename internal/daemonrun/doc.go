// Package daemonrun assembles the daemon process: logger, optional download
// history, media fetcher, workflow manager and HTTP daemon.
package daemonrun
