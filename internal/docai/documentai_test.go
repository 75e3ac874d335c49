package docai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	documentai "google.golang.org/api/documentai/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Veraticus/tradeflow/internal/common"
)

func TestConfig(t *testing.T) {
	cfg := Config{Project: "p", ProcessorID: "abc"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "projects/p/locations/us/processors/abc", cfg.ProcessorName())

	cfg.Location = "eu"
	assert.Equal(t, "projects/p/locations/eu/processors/abc", cfg.ProcessorName())

	require.ErrorIs(t, Config{ProcessorID: "abc"}.Validate(), common.ErrMissingConfig)
	require.ErrorIs(t, Config{Project: "p"}.Validate(), common.ErrMissingConfig)
}

func cellAt(start, end int64) *documentai.GoogleCloudDocumentaiV1DocumentPageTableTableCell {
	return &documentai.GoogleCloudDocumentaiV1DocumentPageTableTableCell{
		Layout: &documentai.GoogleCloudDocumentaiV1DocumentPageLayout{
			TextAnchor: &documentai.GoogleCloudDocumentaiV1DocumentTextAnchor{
				TextSegments: []*documentai.GoogleCloudDocumentaiV1DocumentTextAnchorTextSegment{
					{StartIndex: start, EndIndex: end},
				},
			},
		},
	}
}

func TestConvertDocument(t *testing.T) {
	text := "Creditor Balance\nChase $100\n"
	d := &documentai.GoogleCloudDocumentaiV1Document{
		Text: text,
		Pages: []*documentai.GoogleCloudDocumentaiV1DocumentPage{
			{PageNumber: 1},
			{
				PageNumber: 2,
				Tables: []*documentai.GoogleCloudDocumentaiV1DocumentPageTable{
					{
						Layout: &documentai.GoogleCloudDocumentaiV1DocumentPageLayout{Confidence: 0.9},
						HeaderRows: []*documentai.GoogleCloudDocumentaiV1DocumentPageTableTableRow{
							{Cells: []*documentai.GoogleCloudDocumentaiV1DocumentPageTableTableCell{cellAt(0, 8), cellAt(9, 16)}},
						},
						BodyRows: []*documentai.GoogleCloudDocumentaiV1DocumentPageTableTableRow{
							{Cells: []*documentai.GoogleCloudDocumentaiV1DocumentPageTableTableCell{cellAt(17, 22), cellAt(23, 27), {}}},
						},
					},
				},
			},
		},
	}

	doc := convertDocument(d)

	assert.Equal(t, text, doc.Text)
	assert.Equal(t, 2, doc.PageCount)
	require.Len(t, doc.Tables, 1)
	table := doc.Tables[0]
	assert.Equal(t, 2, table.Page)
	assert.InDelta(t, 0.9, table.Confidence, 1e-9)
	assert.Equal(t, []string{"Creditor", "Balance"}, table.Headers)
	assert.Equal(t, [][]string{{"Chase", "$100", ""}}, table.Rows)
}

func TestAnchorText_OutOfRange(t *testing.T) {
	anchor := &documentai.GoogleCloudDocumentaiV1DocumentTextAnchor{
		TextSegments: []*documentai.GoogleCloudDocumentaiV1DocumentTextAnchorTextSegment{
			{StartIndex: 0, EndIndex: 3},
			{StartIndex: 2, EndIndex: 100},
		},
	}
	assert.Equal(t, "abc", anchorText("abcdef", anchor))
	assert.Empty(t, anchorText("abcdef", nil))
}

func TestClient_Process(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/p/locations/us/processors/abc:process", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"document": {"text": "Experian credit report", "pages": [{"pageNumber": 1}]}}`))
	}))
	defer server.Close()

	client, err := newClient(context.Background(),
		Config{Project: "p", ProcessorID: "abc", Endpoint: server.URL + "/"}, nil,
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	doc, err := client.Process(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "Experian credit report", doc.Text)
	assert.Equal(t, 1, doc.PageCount)

	raw, ok := got["rawDocument"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", raw["mimeType"])
	assert.Equal(t, "JVBERg==", raw["content"])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, wantRetryable: true},
		{name: "unavailable", err: &googleapi.Error{Code: http.StatusServiceUnavailable}, wantRetryable: true},
		{name: "not found", err: &googleapi.Error{Code: http.StatusNotFound}},
		{name: "permission denied", err: &googleapi.Error{Code: http.StatusForbidden}},
		{name: "transport", err: errors.New("connection reset"), wantRetryable: true},
		{name: "canceled", err: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRetryable, common.IsRetryable(classifyError(tt.err)))
		})
	}
}
