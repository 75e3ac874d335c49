package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tradeflow/internal/model"
)

// Formatter renders results for terminal display.
type Formatter struct {
	styles *Styles
}

// NewFormatter creates a formatter with default styles.
func NewFormatter() *Formatter {
	return &Formatter{styles: NewStyles()}
}

// FormatResult renders the full report for one processing result.
func (f *Formatter) FormatResult(job *model.Job, result *model.ProcessingResult) string {
	if result == nil {
		return f.styles.Error.Render("No result available")
	}

	sections := []string{f.formatHeader(job, result)}

	if result.Validation != nil {
		sections = append(sections,
			f.formatScore(result.Validation.OverallConfidence),
			f.formatSummary(result.Validation),
		)
	}
	if result.Consumer != nil {
		sections = append(sections, f.formatConsumer(result.Consumer))
	}
	if len(result.Tradelines) > 0 {
		sections = append(sections, f.FormatTradelines(result.Tradelines))
	}
	if result.Validation != nil {
		sections = append(sections, f.FormatIssues(result.Validation.Issues))
		if len(result.Validation.Suggestions) > 0 {
			sections = append(sections, f.formatSuggestions(result.Validation.Suggestions))
		}
	}

	return strings.Join(sections, "\n\n")
}

func (f *Formatter) formatHeader(job *model.Job, result *model.ProcessingResult) string {
	title := f.styles.Title.Render(ReportIcon + " Credit Report Validation")

	lines := []string{title}
	if job != nil {
		lines = append(lines, f.styles.Subtle.Render(fmt.Sprintf("Job: %s  Source: %s  Status: %s", job.ID, job.SourceName, job.Status)))
	}

	meta := fmt.Sprintf("Processed: %s", result.ProcessedAt.Format(time.RFC3339))
	if result.ModelUsed != "" {
		meta += "  Model: " + result.ModelUsed
	}
	if result.Duration > 0 {
		meta += "  Duration: " + result.Duration.Round(time.Millisecond).String()
	}
	lines = append(lines, f.styles.Subtle.Render(meta))

	return strings.Join(lines, "\n")
}

// formatScore renders the overall confidence with a bar.
func (f *Formatter) formatScore(score float64) string {
	style := f.scoreStyle(score)

	barWidth := 30
	filled := int(float64(barWidth) * min(max(score, 0), 1))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return style.Render(fmt.Sprintf("Overall Confidence: %.1f%%", score*100)) + "\n" + style.Render(bar)
}

func (f *Formatter) formatSummary(v *model.ValidationResult) string {
	s := v.Summary
	counts := []string{
		fmt.Sprintf("Tradelines: %d", s.TotalTradelines),
		f.styles.Success.Render(fmt.Sprintf("%s valid: %d", SuccessIcon, s.ValidTradelines)),
		f.styles.Warning.Render(fmt.Sprintf("%s warnings: %d", WarningIcon, s.WarningTradelines)),
		f.styles.Error.Render(fmt.Sprintf("%s invalid: %d", ErrorIcon, s.InvalidTradelines)),
	}

	m := v.Metrics
	metrics := fmt.Sprintf("Quality: %s  Completeness: %s  Accuracy: %s  Consistency: %s  Reliability: %s",
		f.percent(s.DataQualityScore),
		f.percent(m.Completeness),
		f.percent(m.Accuracy),
		f.percent(m.Consistency),
		f.percent(m.Reliability))

	return f.styles.Subtitle.Render("Summary") + "\n" + strings.Join(counts, "  ") + "\n" + metrics
}

func (f *Formatter) percent(score float64) string {
	return f.scoreStyle(score).Render(fmt.Sprintf("%.0f%%", score*100))
}

func (f *Formatter) scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 0.9:
		return f.styles.Success
	case score >= 0.7:
		return f.styles.Warning
	default:
		return f.styles.Error
	}
}

func (f *Formatter) formatConsumer(c *model.ConsumerInfo) string {
	lines := []string{f.styles.Subtitle.Render("Consumer")}
	name := c.Name
	if name == "" {
		name = f.styles.Subtle.Render("(unknown)")
	}
	lines = append(lines, "Name: "+name)
	if c.SSN != "" {
		lines = append(lines, "SSN: "+c.SSN)
	}
	if c.DateOfBirth != nil {
		lines = append(lines, "Date of birth: "+c.DateOfBirth.Format("2006-01-02"))
	}
	for _, a := range c.Addresses {
		parts := make([]string, 0, 4)
		for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode)} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		label := "Address"
		if a.Type != "" {
			label += " (" + a.Type + ")"
		}
		lines = append(lines, label+": "+strings.Join(parts, ", "))
	}
	if len(c.PhoneNumbers) > 0 {
		lines = append(lines, "Phones: "+strings.Join(c.PhoneNumbers, ", "))
	}
	return f.styles.Box.Render(strings.Join(lines, "\n"))
}

// FormatTradelines renders tradelines as an aligned table.
func (f *Formatter) FormatTradelines(tradelines []model.Tradeline) string {
	const (
		idxWidth      = 3
		creditorWidth = 24
		accountWidth  = 18
		typeWidth     = 14
		amountWidth   = 12
		statusWidth   = 14
		confWidth     = 5
	)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %*s %*s %-*s %*s",
		idxWidth, "#",
		creditorWidth, "Creditor",
		accountWidth, "Account",
		typeWidth, "Type",
		amountWidth, "Balance",
		amountWidth, "Limit",
		statusWidth, "Status",
		confWidth, "Conf")

	rows := []string{
		f.styles.Subtitle.Render(fmt.Sprintf("Tradelines (%d)", len(tradelines))),
		f.styles.Bold.Render(header),
		f.styles.Subtle.Render(strings.Repeat("─", len(header))),
	}

	for i, t := range tradelines {
		row := fmt.Sprintf("%-*d %-*s %-*s %-*s %*s %*s %-*s %*s",
			idxWidth, i,
			creditorWidth, truncate(t.CreditorName, creditorWidth),
			accountWidth, truncate(t.AccountNumber, accountWidth),
			typeWidth, truncate(string(t.AccountType), typeWidth),
			amountWidth, money(t.Balance),
			amountWidth, money(t.CreditLimit),
			statusWidth, truncate(t.StatusText, statusWidth),
			confWidth, strconv.FormatFloat(t.Confidence, 'f', 2, 64))
		if t.IsNegative {
			row = f.styles.Warning.Render(row)
		}
		rows = append(rows, row)
	}

	return strings.Join(rows, "\n")
}

// FormatIssues renders validation issues grouped by severity.
func (f *Formatter) FormatIssues(issues []model.ValidationIssue) string {
	title := f.styles.Subtitle.Render(fmt.Sprintf("Issues (%d)", len(issues)))
	if len(issues) == 0 {
		return title + "\n" + f.styles.Success.Render(SuccessIcon+" No issues found")
	}

	lines := []string{title}
	for _, severity := range model.Severities() {
		for _, issue := range issues {
			if issue.Severity != severity {
				continue
			}
			lines = append(lines, f.formatIssue(issue))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) formatIssue(issue model.ValidationIssue) string {
	style := f.severityStyle(issue.Severity)
	label := style.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(issue.Severity))))

	where := "consumer"
	switch {
	case len(issue.RelatedIndices) > 0:
		idx := make([]string, 0, len(issue.RelatedIndices))
		for _, i := range issue.RelatedIndices {
			idx = append(idx, strconv.Itoa(i))
		}
		where = "tradelines " + strings.Join(idx, ",")
	case issue.TradelineIndex != nil:
		where = "tradeline " + strconv.Itoa(*issue.TradelineIndex)
	}

	line := fmt.Sprintf("%s %s %s: %s", label, f.styles.Subtle.Render(string(issue.Type)), where, issue.Description)
	if issue.SuggestedFix != "" {
		line += "\n    " + f.styles.Info.Render("→ "+issue.SuggestedFix)
	}
	return line
}

func (f *Formatter) severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityCritical:
		return f.styles.Critical
	case model.SeverityHigh:
		return f.styles.High
	case model.SeverityMedium:
		return f.styles.Medium
	default:
		return f.styles.Low
	}
}

func (f *Formatter) formatSuggestions(suggestions []string) string {
	lines := []string{f.styles.Subtitle.Render("Suggestions")}
	for _, s := range suggestions {
		lines = append(lines, "• "+s)
	}
	return strings.Join(lines, "\n")
}

// FormatJobs renders a job listing.
func (f *Formatter) FormatJobs(jobs []model.Job) string {
	if len(jobs) == 0 {
		return f.styles.Subtle.Render("No jobs found")
	}

	header := fmt.Sprintf("%-36s %-10s %-20s %s", "ID", "Status", "Created", "Source")
	rows := []string{
		f.styles.Bold.Render(header),
		f.styles.Subtle.Render(strings.Repeat("─", len(header))),
	}
	for _, job := range jobs {
		status := fmt.Sprintf("%-10s", job.Status)
		switch job.Status {
		case model.JobStatusCompleted:
			status = f.styles.Success.Render(status)
		case model.JobStatusFailed:
			status = f.styles.Error.Render(status)
		case model.JobStatusProcessing:
			status = f.styles.Warning.Render(status)
		}
		row := fmt.Sprintf("%-36s %s %-20s %s", job.ID, status, job.CreatedAt.Format("2006-01-02 15:04"), job.SourceName)
		if job.Error != "" {
			row += "\n" + f.styles.Subtle.Render("    "+job.Error)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
