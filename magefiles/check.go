//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Check smoke-runs the compliance layer by listing the built-in standards catalog.
func Check() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "check", "standards")
}
