package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// findProjectRoot walks up from this file to the directory holding go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Unable to get current file path")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find go.mod to determine project root")
		}
		dir = parent
	}
}

// walkGoFiles calls fn for every non-test Go file under root/internal and
// root/cmd.
func walkGoFiles(t *testing.T, root string, fn func(rel string, lines []string)) {
	t.Helper()
	for _, top := range []string{"internal", "cmd"} {
		err := filepath.Walk(filepath.Join(root, top), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var lines []string
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			fn(filepath.ToSlash(rel), lines)
			return nil
		})
		if err != nil {
			t.Fatalf("Error walking %s: %v", top, err)
		}
	}
}

// TestNoDirectLogging ensures nothing but main.go writes to stdout, which
// carries the JSON-RPC stream, and that logging goes through slog.
func TestNoDirectLogging(t *testing.T) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\bfmt\.Printf\s*\(`),
		regexp.MustCompile(`\bfmt\.Print\s*\(`),
		regexp.MustCompile(`\bfmt\.Println\s*\(`),
		regexp.MustCompile(`\blog\.Printf\s*\(`),
		regexp.MustCompile(`\blog\.Print\s*\(`),
		regexp.MustCompile(`\blog\.Println\s*\(`),
		regexp.MustCompile(`\bprintln\s*\(`),
		regexp.MustCompile(`\bprint\s*\(`),
	}

	var violations []string
	walkGoFiles(t, findProjectRoot(t), func(rel string, lines []string) {
		// Version and help output.
		if strings.HasSuffix(rel, "/main.go") {
			return
		}
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") {
				continue
			}
			for _, p := range patterns {
				if p.MatchString(line) {
					violations = append(violations, fmt.Sprintf("%s:%d: %s", rel, i+1, trimmed))
				}
			}
		}
	})

	for _, v := range violations {
		t.Errorf("direct output: %s", v)
	}
}

// TestCorePackagesDoNotLog keeps the color packages free of logging so they
// stay usable as plain libraries.
func TestCorePackagesDoNotLog(t *testing.T) {
	core := []string{"internal/pixel/", "internal/histogram/", "internal/quantize/", "internal/fault/"}
	imports := regexp.MustCompile(`"(log|log/slog|github\.com/ironsheep/quantize-mcp/internal/logging)"`)

	walkGoFiles(t, findProjectRoot(t), func(rel string, lines []string) {
		isCore := false
		for _, prefix := range core {
			if strings.HasPrefix(rel, prefix) {
				isCore = true
			}
		}
		if !isCore {
			return
		}
		for i, line := range lines {
			if imports.MatchString(line) {
				t.Errorf("%s:%d imports a logger: %s", rel, i+1, strings.TrimSpace(line))
			}
		}
	})
}
