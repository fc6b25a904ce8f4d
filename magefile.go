//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables into ./bin
func Build() error {
	mg.Deps(BuildSimulator, BuildMemgen)
	fmt.Println("Compilation finished")
	return nil
}

func BuildSimulator() error {
	fmt.Println("Building simulator executable...")
	return goCommand("build", "-o", "./bin/simulator", "./simulator")
}

func BuildMemgen() error {
	fmt.Println("Building memgen executable...")
	return goCommand("build", "-o", "./bin/memgen", "./memgen")
}

// Test runs the library tests
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./pkg/...")
}

// Memories writes the default truth tables into ./memories
func Memories() error {
	mg.Deps(BuildMemgen)
	cmd := exec.Command("./bin/memgen", "-dir", "./memories")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// goCommand runs the go tool with cgo on, HDF5 is linked through it
func goCommand(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
