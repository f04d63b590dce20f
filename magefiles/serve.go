//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the CLI, prepares the working directories, and runs the
// HTTP API server in the foreground.
func Serve() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "serve")
}
