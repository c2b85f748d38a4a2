// Package output provides styled terminal output for the generator CLI.
//
// Functions use lipgloss for styling but abstract away the details from callers.
// Fatal diagnostics go through Error; everything else is informational and never
// affects the exit code.
package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verboseMode bool
)

// SetVerbose enables or disables verbose output.
// Called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// Verbose reports whether verbose mode is enabled.
func Verbose() bool {
	return verboseMode
}

// Success prints a completed-operation message.
//
// Example:
//
//	output.Success("Generated 14 projects (2 written, 12 unchanged)")
func Success(msg string) {
	fmt.Println(successStyle.Render("✓ " + msg))
}

// Error prints a fatal diagnostic. The caller decides the exit code.
func Error(msg string) {
	fmt.Println(errorStyle.Render("✗ " + msg))
}

// Warn prints a non-fatal warning to the diagnostic stream.
func Warn(msg string) {
	fmt.Println(warnStyle.Render("! " + msg))
}

// Info prints a status update.
func Info(msg string) {
	fmt.Println(infoStyle.Render(msg))
}

// Step prints an indented sub-item in gray.
//
// Example:
//
//	output.Step("skipped Library/Variants/Game.iOS.csproj (fresh)")
func Step(msg string) {
	fmt.Println(stepStyle.Render("   " + msg))
}

// Debug prints a message only when verbose mode is enabled.
func Debug(msg string) {
	if verboseMode {
		fmt.Println(stepStyle.Render("· " + msg))
	}
}
