package output

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Status colors
	UpToDate     = color.New(color.FgGreen)
	Outdated     = color.New(color.FgYellow, color.Bold)
	AutoUpdated  = color.New(color.FgCyan)
	Unmatched    = color.New(color.Faint)
	Ambiguous    = color.New(color.FgMagenta)
	Incomparable = color.New(color.FgBlue)
	Unavailable  = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// StatusColor returns the color for a reconciliation status name
func StatusColor(status string) *color.Color {
	switch status {
	case "up-to-date":
		return UpToDate
	case "outdated":
		return Outdated
	case "auto-updated":
		return AutoUpdated
	case "unmatched":
		return Unmatched
	case "ambiguous":
		return Ambiguous
	case "incomparable":
		return Incomparable
	case "unavailable":
		return Unavailable
	default:
		return color.New(color.Reset)
	}
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// FormatStatus formats a status name with its color
func FormatStatus(status string) string {
	c := StatusColor(status)
	return c.Sprintf("[%s]", status)
}

// FormatPackage formats a package name with its kind, e.g. "cask/slack"
func FormatPackage(kind, name string) string {
	if kind != "" {
		return Package.Sprintf("%s/%s", kind, name)
	}
	return Package.Sprint(name)
}
