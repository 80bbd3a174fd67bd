// Package statuscolor picks terminal colors for probe outcomes. Colors are
// disabled globally through color.NoColor.
package statuscolor

import (
	"github.com/fatih/color"

	"github.com/selimozcann/RealityScout/internal/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	gray   = color.New(color.FgHiBlack)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = map[bool]*color.Color{
		true:  color.New(color.FgGreen, color.Bold),
		false: color.New(color.FgRed, color.Bold),
	}
)

// For returns the color of an outcome: green for positive, red for errors,
// yellow for other negatives.
func For(o model.Outcome) *color.Color {
	switch {
	case !o.Negative():
		return green
	case o.Finding == model.FindingError:
		return red
	default:
		return yellow
	}
}

// Outcome colors text by o.
func Outcome(text string, o model.Outcome) string { return For(o).Sprint(text) }

// Positive colors text as a point in the target's favor.
func Positive(text string) string { return green.Sprint(text) }

// Negative colors text as a point against the target.
func Negative(text string) string { return yellow.Sprint(text) }

// Failure colors text as an error.
func Failure(text string) string { return red.Sprint(text) }

// Gray dims text.
func Gray(text string) string { return gray.Sprint(text) }

// Heading colors section titles.
func Heading(text string) string { return cyan.Sprint(text) }

// Verdict colors a verdict line green when acceptable and red otherwise.
func Verdict(text string, acceptable bool) string { return bold[acceptable].Sprint(text) }
