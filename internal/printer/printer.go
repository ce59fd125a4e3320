// Package printer holds the colored terminal output helpers for the plank
// CLI. Human-facing text goes through these; machine-readable output (--json)
// bypasses them entirely.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to a TTY.
	// Users can disable with the NO_COLOR environment variable.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a success line in green with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints an informational line in the default color.
func Info(format string, a ...any) {
	fmt.Printf("%s\n", fmt.Sprintf(format, a...))
}

// Warning prints a warning line in yellow.
func Warning(format string, a ...any) {
	yellow.Printf("⚠ %s\n", fmt.Sprintf(format, a...))
}

// Field prints an aligned "label: value" line with the label emphasized.
// Used by show-style commands that render one record as a block.
func Field(label string, format string, a ...any) {
	cyan.Printf("%-12s", label+":")
	fmt.Printf(" %s\n", fmt.Sprintf(format, a...))
}

// Error prints a formatted error to stderr with optional suggestions, then
// returns a plain error for Cobra (not re-printed thanks to SilenceErrors).
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr)
		for _, suggestion := range suggestions {
			fmt.Fprintf(os.Stderr, "  • %s\n", suggestion)
		}
	}
	return fmt.Errorf("%s", title)
}

// Println prints a plain message.
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints a plain formatted message.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}
