package main

import (
	"fmt"
	"io"
	"os"
)

// style is an ANSI SGR parameter.
type style string

const (
	styleBold  style = "1"
	styleRed   style = "31"
	styleGreen style = "32"
	styleAmber style = "33"
)

// notices go to stderr so command output on stdout stays pipeable.
var stderr io.Writer = os.Stderr

func paint(st style, text string) string {
	if noColor {
		return text
	}
	return "\033[" + string(st) + "m" + text + "\033[0m"
}

func notice(st style, mark, format string, args ...any) {
	fmt.Fprintln(stderr, paint(st, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { notice(styleGreen, "✓", format, args...) }
func printError(format string, args ...any)   { notice(styleRed, "✗", format, args...) }
func printWarning(format string, args ...any) { notice(styleAmber, "⚠", format, args...) }

// printStatus prints an indented "label: value" line.
func printStatus(label, format string, args ...any) {
	fmt.Fprintf(stderr, "  %s %s\n", paint(styleBold, label+":"), fmt.Sprintf(format, args...))
}
