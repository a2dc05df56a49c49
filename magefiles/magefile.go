//go:build mage

// Package main provides build targets for the secretgarden project using Mage.
//
// Usage:
//
//	mage build            Compile secretgarden to bin/
//	mage test             Run unit tests
//	mage testIntegration  Run the Postgres tests (needs Docker)
//	mage lint             Run golangci-lint
//	mage serve            Build and run a garden server
//	mage clean            Remove build artifacts
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "secretgarden"
	binaryDir  = "bin"
)

// Build compiles the secretgarden binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	return sh.RunV("go", "build", "-v",
		"-ldflags", fmt.Sprintf("-X main.version=%s", version),
		"-o", filepath.Join(binaryDir, binaryName), ".")
}

// Test runs unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestIntegration runs the tests tagged integration against containers.
func TestIntegration() error {
	return sh.RunV("go", "test", "-tags", "integration", "-count=1", "./internal/store/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Serve builds and runs a garden server with debug logging.
func Serve() error {
	mg.Deps(Build)
	return sh.RunWithV(map[string]string{"GARDEN_LOG_LEVEL": "debug"},
		filepath.Join(binaryDir, binaryName), "serve")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
