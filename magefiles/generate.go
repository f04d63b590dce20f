//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Generate smoke-runs test case generation through the template engine.
// No API key or database is required.
func Generate() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "generate",
		"--text", "The system shall encrypt patient records at rest and shall enforce role-based access for clinicians.",
		"--type", "security",
		"--save=false",
	)
}
