package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successMark = color.New(color.FgGreen).Sprint("✔")
	warnMark    = color.New(color.FgYellow).Sprint("!")
	faintMark   = color.New(color.FgHiBlack).Sprint("✘")
	bold        = color.New(color.Bold).SprintFunc()
	faint       = color.New(color.FgHiBlack).SprintFunc()
	green       = color.New(color.FgGreen).SprintFunc()
	yellow      = color.New(color.FgYellow).SprintFunc()
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successMark, fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark, fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
