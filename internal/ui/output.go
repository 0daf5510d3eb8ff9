// Package ui prints colored progress output for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	blueColor    = color.New(color.FgBlue)
	yellowColor  = color.New(color.FgYellow)
)

// center pads text on the left so it sits in the middle of width columns
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}

// Header prints a banner line
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step
func Step(n, total int, text string) {
	infoColor.Printf("[%d/%d] %s\n", n, total, text)
}

// Success prints a green checkmark line
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a plain informational line
func Info(text string) {
	infoColor.Println(text)
}

// Warning prints a yellow warning line
func Warning(text string) {
	warnColor.Printf("! %s\n", text)
}

// Error prints a red error line
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints text in blue
func BlueText(text string) {
	blueColor.Println(text)
}

// YellowText prints text in yellow
func YellowText(text string) {
	yellowColor.Println(text)
}

// Summary prints a labeled count line, used for import totals
func Summary(label string, count int) {
	fmt.Printf("  %-20s %d\n", label, count)
}
