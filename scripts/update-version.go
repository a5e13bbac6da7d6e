//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Usage: go run scripts/update-version.go <X.Y.Z>, from the project root.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: Version not provided")
		fmt.Fprintln(os.Stderr, "Usage: go run scripts/update-version.go <version>")
		os.Exit(1)
	}

	version := os.Args[1]
	if matched, _ := regexp.MatchString(`^\d+\.\d+\.\d+$`, version); !matched {
		fmt.Fprintln(os.Stderr, "Error: Version must be in format X.Y.Z (e.g., 1.0.0)")
		os.Exit(1)
	}

	projectRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	typesGoPath := filepath.Join(projectRoot, "src", "types.go")
	typesContent, err := os.ReadFile(typesGoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading types.go: %v\n", err)
		os.Exit(1)
	}

	re := regexp.MustCompile(`APP_VERSION(\s*)=\s*"[^"]+"`)
	if !re.Match(typesContent) {
		fmt.Fprintln(os.Stderr, "Error: APP_VERSION not found in src/types.go")
		os.Exit(1)
	}
	updated := re.ReplaceAll(typesContent, []byte(fmt.Sprintf(`APP_VERSION${1}= "%s"`, version)))

	if err := os.WriteFile(typesGoPath, updated, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing types.go: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Version updated to %s in src/types.go\n", version)
}
