package main

import (
	"fmt"
	"io"
)

var color = true

func debugPrintf(w io.Writer, enabled bool, format string, a ...interface{}) {
	if enabled {
		paint(w, "\033[33m", "[DEBUG] "+format, a...)
	}
}

func greenPrintf(w io.Writer, format string, a ...interface{}) {
	paint(w, "\033[92m", format, a...)
}

func warningPrintf(w io.Writer, format string, a ...interface{}) {
	paint(w, "\033[93m", format, a...)
}

func paint(w io.Writer, code, format string, a ...interface{}) {
	if color {
		fmt.Fprint(w, code)
	}
	fmt.Fprintf(w, format, a...)
	if color {
		fmt.Fprint(w, "\033[0m")
	}
}

func clearScreen(w io.Writer) {
	if color {
		fmt.Fprint(w, "\033[2J\033[1;1H")
	}
}
