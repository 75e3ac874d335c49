package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/tradeflow/internal/model"
)

// Sheet names in exported workbooks.
const (
	SummarySheet    = "Summary"
	TradelinesSheet = "Tradelines"
	IssuesSheet     = "Issues"
)

var (
	tradelineHeaders = []string{
		"Index", "Creditor", "Account Number", "Account Type", "Balance", "Credit Limit",
		"Monthly Payment", "Payment Status", "Status", "Date Opened", "Date Closed",
		"Bureau", "Negative", "Confidence", "Payment History", "Parse Failures",
	}
	issueHeaders = []string{
		"Severity", "Type", "Tradeline", "Related", "Field", "Description", "Suggested Fix",
	}
)

// ExportXLSX writes result as a workbook with summary, tradeline and issue sheets.
func ExportXLSX(w io.Writer, job *model.Job, result *model.ProcessingResult) error {
	if result == nil {
		return fmt.Errorf("no result to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{TradelinesSheet, IssuesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, job, result); err != nil {
		return err
	}
	if err := writeTable(f, TradelinesSheet, tradelineHeaders, tradelineRows(result.Tradelines), headerStyle); err != nil {
		return err
	}
	var issues []model.ValidationIssue
	if result.Validation != nil {
		issues = result.Validation.Issues
	}
	if err := writeTable(f, IssuesSheet, issueHeaders, issueRows(issues), headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, job *model.Job, result *model.ProcessingResult) error {
	rows := [][]any{
		{"Job ID", result.JobID},
	}
	if job != nil {
		rows = append(rows,
			[]any{"Source", job.SourceName},
			[]any{"Status", string(job.Status)})
	}
	rows = append(rows,
		[]any{"Processed At", result.ProcessedAt.Format("2006-01-02 15:04:05")},
		[]any{"Model", result.ModelUsed},
		[]any{"Fields Normalized", fmt.Sprintf("%d/%d", result.Stats.FieldsProcessed, result.Stats.TotalFields)})

	if c := result.Consumer; c != nil {
		rows = append(rows, []any{"Consumer", c.Name}, []any{"SSN", c.SSN})
	}
	if v := result.Validation; v != nil {
		rows = append(rows,
			[]any{"Overall Confidence", v.OverallConfidence},
			[]any{"Total Tradelines", v.Summary.TotalTradelines},
			[]any{"Valid Tradelines", v.Summary.ValidTradelines},
			[]any{"Warning Tradelines", v.Summary.WarningTradelines},
			[]any{"Invalid Tradelines", v.Summary.InvalidTradelines},
			[]any{"Data Quality Score", v.Summary.DataQualityScore},
			[]any{"Completeness", v.Metrics.Completeness},
			[]any{"Accuracy", v.Metrics.Accuracy},
			[]any{"Consistency", v.Metrics.Consistency},
			[]any{"Reliability", v.Metrics.Reliability})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sheet, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func tradelineRows(tradelines []model.Tradeline) [][]any {
	rows := make([][]any, 0, len(tradelines))
	for i, t := range tradelines {
		rows = append(rows, []any{
			i,
			t.CreditorName,
			t.AccountNumber,
			string(t.AccountType),
			cellAmount(t.Balance),
			cellAmount(t.CreditLimit),
			cellAmount(t.MonthlyPayment),
			string(t.PaymentStatus),
			t.StatusText,
			cellDate(t.DateOpened),
			cellDate(t.DateClosed),
			string(t.CreditBureau),
			t.IsNegative,
			t.Confidence,
			strings.Join(t.PaymentHistory, ", "),
			strings.Join(t.ParseFailures, ", "),
		})
	}
	return rows
}

func issueRows(issues []model.ValidationIssue) [][]any {
	rows := make([][]any, 0, len(issues))
	for _, issue := range issues {
		index := ""
		if issue.TradelineIndex != nil {
			index = strconv.Itoa(*issue.TradelineIndex)
		}
		related := make([]string, 0, len(issue.RelatedIndices))
		for _, r := range issue.RelatedIndices {
			related = append(related, strconv.Itoa(r))
		}
		rows = append(rows, []any{
			string(issue.Severity),
			string(issue.Type),
			index,
			strings.Join(related, ","),
			issue.Field,
			issue.Description,
			issue.SuggestedFix,
		})
	}
	return rows
}

func cellAmount(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func cellDate(t *time.Time) any {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
