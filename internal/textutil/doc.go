// Package textutil holds small string helpers for turning media titles into
// safe file names and tokens.
package textutil
