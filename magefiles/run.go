//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the castle scene with engine.toml.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/citadel", withArgs("-config", "engine.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs 300 headless frames on the simulated backend.
func (Run) Headless() error {
	mg.Deps(Build.Engine)
	if _, err := executeCmd("bin/citadel", withArgs("-config", "configs/headless.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
