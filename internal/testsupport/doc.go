// Package testsupport builds throwaway configs, stub binaries, history
// stores and audio files for package tests.
package testsupport
