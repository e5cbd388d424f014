package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"grocery-cli/internal/cli"
)

func isQuickAdd(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "+") && len(s) > 1
}

// rewriteQuickAddArgs turns `grocery +Milk --qty 2` into `grocery add Milk --qty 2`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first, so this looks for the first positional token.
func rewriteQuickAddArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--dir":    true,
		"--list":   true,
		"--format": true,
		"--log":    true,
	}
	boolFlags := map[string]bool{
		"--pretty":  true,
		"--offline": true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "add", strings.TrimPrefix(strings.TrimSpace(argv[i]), "+"))
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isQuickAdd(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isQuickAdd(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	// A .env in the working directory may set GROCERY_* variables; real env wins.
	_ = godotenv.Load()

	os.Args = rewriteQuickAddArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
