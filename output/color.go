// Package output renders APOD entries, errors and download results for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors when writing to a terminal
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors for w
func ResolveColors(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

// painter applies color attributes only when enabled, independent of the
// package-level color.NoColor setting
type painter bool

func (p painter) paint(text string, attrs ...color.Attribute) string {
	if !p {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}
