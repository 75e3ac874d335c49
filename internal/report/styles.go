// Package report renders processing results for the terminal and exports
// them to spreadsheets.
package report

import "github.com/charmbracelet/lipgloss"

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates valid records and good scores.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings and middling scores.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates invalid records and failures.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational text.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent elements.
	SubtleColor = lipgloss.Color("#666666") // Gray
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	InfoIcon    = "ℹ"
	ReportIcon  = "📄"
)

// Styles contains the styling used by the formatter.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Bold     lipgloss.Style
	Normal   lipgloss.Style

	Box      lipgloss.Style
	Header   lipgloss.Style
	Critical lipgloss.Style
	High     lipgloss.Style
	Medium   lipgloss.Style
	Low      lipgloss.Style
}

// NewStyles creates the default styles.
func NewStyles() *Styles {
	s := &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor),
		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(SubtleColor),
		Success: lipgloss.NewStyle().Foreground(SuccessColor),
		Warning: lipgloss.NewStyle().Foreground(WarningColor),
		Error:   lipgloss.NewStyle().Foreground(ErrorColor),
		Info:    lipgloss.NewStyle().Foreground(InfoColor),
		Subtle:  lipgloss.NewStyle().Foreground(SubtleColor),
		Bold:    lipgloss.NewStyle().Bold(true),
		Normal:  lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SubtleColor).
		Padding(0, 1)

	s.Header = lipgloss.NewStyle().
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#333"))

	// Severity-specific styles
	s.Critical = lipgloss.NewStyle().
		Bold(true).
		Foreground(ErrorColor).
		Background(lipgloss.Color("#2D0000"))
	s.High = lipgloss.NewStyle().
		Bold(true).
		Foreground(ErrorColor)
	s.Medium = lipgloss.NewStyle().
		Foreground(WarningColor)
	s.Low = lipgloss.NewStyle().
		Foreground(SubtleColor)

	return s
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(SuccessColor).Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return lipgloss.NewStyle().Foreground(ErrorColor).Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return lipgloss.NewStyle().Foreground(WarningColor).Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return lipgloss.NewStyle().Foreground(InfoColor).Render(InfoIcon + " " + message)
}
