package ui

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
)

// Formatter colors text, or wraps it in plain decorations when color is off.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if colorDisabled() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

var (
	// Code marks commands the user can type.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path marks files and directories.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}

	// Highlight marks user values such as repository and user names.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted marks optional arguments and signatures.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// NO_COLOR is honored even when fatih/color decided the terminal supports
// color.
func colorDisabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

// Result renders a command outcome as a single marked line.
func Result(ok bool, message string) string {
	if ok {
		return Success.Sprint("✓") + " " + message
	}
	return Error.Sprint("✗") + " " + message
}

// BridgeStatus renders the state of the bridge listener. A negative port
// means the bridge is not bound.
func BridgeStatus(port int) string {
	if port < 0 {
		return Result(false, "Bridge port unavailable, use "+Code.Sprint("port N"))
	}
	return Result(true, "Bridge listening on port "+strconv.Itoa(port))
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if s == "" || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
