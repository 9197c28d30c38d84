//go:build mage

// Package main contains Mage build targets for claimgraph developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI writes to.
var projectDirs = []string{
	"responses",
	"graphs",
	"sessions",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "claimgraph"
	cmdPkg  = "./cmd/claimgraph"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Map builds the CLI and maps every saved response in responses/ into graphs/.
func Map() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "map", "responses")
}

// Stats prints the Go line counts and what the working directories hold:
// saved responses, mapped graphs and the session database.
func Stats() error {
	prod, tests, err := countGoLines(".")
	if err != nil {
		return err
	}
	responses, err := countFiles("responses", ".txt", ".md", ".json")
	if err != nil {
		return err
	}
	graphs, err := countFiles("graphs", ".yaml", ".yml", ".json")
	if err != nil {
		return err
	}

	fmt.Printf("Go lines (production, tests): %d, %d\n", prod, tests)
	fmt.Printf("Saved responses:              %d\n", responses)
	fmt.Printf("Mapped graphs:                %d\n", graphs)
	if info, err := os.Stat(filepath.Join("sessions", "sessions.db")); err == nil {
		fmt.Printf("Session database:             %d bytes\n", info.Size())
	} else {
		fmt.Println("Session database:             none")
	}
	return nil
}

// skipDir skips hidden and underscore-prefixed directories.
func skipDir(path string, info os.FileInfo) error {
	name := info.Name()
	if path != "." && (name[0] == '.' || name[0] == '_') {
		return filepath.SkipDir
	}
	return nil
}

// countGoLines counts non-blank lines in non-test and test Go files.
func countGoLines(root string) (prod, tests int, err error) {
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return skipDir(path, info)
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for line := range strings.Lines(string(data)) {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, tests, err
}

// countFiles counts the files under dir with one of exts. A missing dir
// counts as empty.
func countFiles(dir string, exts ...string) (int, error) {
	total := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() && slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			total++
		}
		return nil
	})
	return total, err
}
