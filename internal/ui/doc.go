// Package ui styles terminal output with lipgloss.
//
// The default [Palette] renders headers, success and failure lines, warnings and hints. Styles
// degrade to plain text when the output is not a terminal.
package ui
