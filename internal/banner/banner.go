package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Print writes the startup banner to w.
func Print(w io.Writer) {
	myFigure := figure.NewFigure("RSCOUT", "doom", true)

	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	for _, line := range myFigure.Slicify() {
		_, _ = red.Fprintln(w, line)
	}
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintln(w, "    Reality dest/SNI suitability checker")
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
