package format

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Output colors
var (
	ErrorColor     = color.New(color.FgRed, color.Bold)
	WarningColor   = color.New(color.FgYellow, color.Bold)
	SuccessColor   = color.New(color.FgGreen, color.Bold)
	FileColor      = color.New(color.FgCyan)
	LineColor      = color.New(color.FgHiGreen)
	ContextColor   = color.New(color.FgHiBlack)
	HintColor      = color.New(color.FgYellow, color.Italic)
	HeadingColor   = color.New(color.FgHiWhite, color.Bold)
	HighlightColor = color.New(color.FgHiRed)
	LabelColor     = color.New(color.FgCyan, color.Bold)
)

// init honours STOCKROOM_NO_COLOR on top of the NO_COLOR and TTY detection
// fatih/color already performs.
func init() {
	if _, ok := os.LookupEnv("STOCKROOM_NO_COLOR"); ok {
		color.NoColor = true
	}
	if _, ok := os.LookupEnv("STOCKROOM_FORCE_COLOR"); ok {
		color.NoColor = false
	}
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	color.NoColor = !enable
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return !color.NoColor
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string {
	return SuccessColor.Sprintf(format, a...)
}

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string {
	return WarningColor.Sprintf(format, a...)
}

// Error formats a message as an error (red)
func Error(format string, a ...interface{}) string {
	return ErrorColor.Sprintf(format, a...)
}

// StatusSymbol returns a colorized status symbol
func StatusSymbol(success bool) string {
	if success {
		return SuccessColor.Sprint("✓")
	}
	return ErrorColor.Sprint("✗")
}

// Label formats a key and value with a label style
func Label(key, value string) string {
	return fmt.Sprintf("%s %s", LabelColor.Sprint(key+":"), value)
}

// Required marks a field name as required.
func Required(name string, required bool) string {
	if !required {
		return name
	}
	return name + HighlightColor.Sprint("*")
}
