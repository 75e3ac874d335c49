package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	job, result := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, job, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SummarySheet, TradelinesSheet, IssuesSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, []string{"Job ID", "job-1"}, summary[0])

	tradelines, err := f.GetRows(TradelinesSheet)
	require.NoError(t, err)
	require.Len(t, tradelines, 3)
	assert.Equal(t, tradelineHeaders, tradelines[0])
	assert.Equal(t, "Chase Bank", tradelines[1][1])
	assert.Equal(t, "1250.5", tradelines[1][4])
	assert.Equal(t, "2018-01-15", tradelines[1][9])

	balance, err := f.GetCellValue(TradelinesSheet, "E3")
	require.NoError(t, err)
	assert.Empty(t, balance)

	issues, err := f.GetRows(IssuesSheet)
	require.NoError(t, err)
	require.Len(t, issues, 4)
	assert.Equal(t, "medium", issues[1][0])
	assert.Equal(t, "1", issues[1][2])
}

func TestExportXLSX_NoResult(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, ExportXLSX(&buf, nil, nil))
}
