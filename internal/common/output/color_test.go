package output

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestColorOutputMatchesStatusType checks the ANSI code chosen per status
func TestColorOutputMatchesStatusType(t *testing.T) {
	// Ensure colors are enabled for this test
	ForceColor()
	defer NoColor()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Map of status types to their expected ANSI color codes
	statusColorCodes := map[string]string{
		"up-to-date":   "\x1b[32m",   // Green
		"outdated":     "\x1b[33;1m", // Bold yellow
		"auto-updated": "\x1b[36m",   // Cyan
		"ambiguous":    "\x1b[35m",   // Magenta
		"incomparable": "\x1b[34m",   // Blue
		"unavailable":  "\x1b[31m",   // Red
	}

	// Generator for known status types
	statusGen := gen.OneConstOf("up-to-date", "outdated", "auto-updated", "ambiguous", "incomparable", "unavailable")

	properties.Property("FormatStatus contains correct ANSI code for status type", prop.ForAll(
		func(status string) bool {
			formatted := FormatStatus(status)
			expectedCode := statusColorCodes[status]
			return strings.Contains(formatted, expectedCode)
		},
		statusGen,
	))

	properties.Property("StatusColor returns non-nil color for known status", prop.ForAll(
		func(status string) bool {
			c := StatusColor(status)
			return c != nil
		},
		statusGen,
	))

	properties.Property("FormatStatus output contains the status text", prop.ForAll(
		func(status string) bool {
			formatted := FormatStatus(status)
			return strings.Contains(formatted, status)
		},
		statusGen,
	))

	properties.TestingRun(t)
}

// TestNoColorFlagDisablesANSICodes checks that --no-color strips every escape
func TestNoColorFlagDisablesANSICodes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Generator for known status types
	statusGen := gen.OneConstOf("up-to-date", "outdated", "auto-updated", "unmatched", "ambiguous", "incomparable", "unavailable")

	// Generator for arbitrary strings to test with Sprint/Sprintf
	stringGen := gen.AnyString()

	properties.Property("FormatStatus contains no ANSI codes when NoColor is set", prop.ForAll(
		func(status string) bool {
			NoColor()
			defer ForceColor()

			formatted := FormatStatus(status)
			// ANSI escape sequences start with \x1b[ or \033[
			return !strings.Contains(formatted, "\x1b[") && !strings.Contains(formatted, "\033[")
		},
		statusGen,
	))

	properties.Property("Sprintf contains no ANSI codes when NoColor is set", prop.ForAll(
		func(text string) bool {
			NoColor()
			defer ForceColor()

			// Test with various color types
			colors := []*color.Color{UpToDate, Outdated, AutoUpdated, Unavailable, Success, Error, Info, Warning}
			for _, c := range colors {
				result := Sprintf(c, "%s", text)
				if strings.Contains(result, "\x1b[") || strings.Contains(result, "\033[") {
					return false
				}
			}
			return true
		},
		stringGen,
	))

	properties.Property("FormatPackage contains no ANSI codes when NoColor is set", prop.ForAll(
		func(kind, pkg string) bool {
			NoColor()
			defer ForceColor()

			formatted := FormatPackage(kind, pkg)
			return !strings.Contains(formatted, "\x1b[") && !strings.Contains(formatted, "\033[")
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
