package docai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	documentai "google.golang.org/api/documentai/v1"
	"google.golang.org/api/option"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/config"
	"github.com/Veraticus/tradeflow/internal/model"
)

// Config identifies a Document AI processor.
type Config struct {
	Project         string
	Location        string // Defaults to "us"
	ProcessorID     string
	CredentialsFile string // Service account key; application default credentials when empty
	Endpoint        string // Overrides the regional endpoint
}

// Validate checks that the processor is fully identified.
func (c Config) Validate() error {
	switch {
	case c.Project == "":
		return fmt.Errorf("docai project is required: %w", common.ErrMissingConfig)
	case c.ProcessorID == "":
		return fmt.Errorf("docai processor is required: %w", common.ErrMissingConfig)
	}
	return nil
}

// ProcessorName returns the processor's resource name.
func (c Config) ProcessorName() string {
	location := c.Location
	if location == "" {
		location = "us"
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.Project, location, c.ProcessorID)
}

// Client processes documents with a Document AI processor.
type Client struct {
	svc    *documentai.Service
	logger *slog.Logger
	name   string
}

var _ Processor = (*Client)(nil)

// NewClient authenticates and creates a Document AI client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokenSource, err := newTokenSource(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	return newClient(ctx, cfg, logger, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
}

func newClient(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		location := cfg.Location
		if location == "" {
			location = "us"
		}
		endpoint = fmt.Sprintf("https://%s-documentai.googleapis.com/", location)
	}
	opts = append(opts, option.WithEndpoint(endpoint))

	svc, err := documentai.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create document ai service: %w", err)
	}

	return &Client{svc: svc, logger: logger, name: cfg.ProcessorName()}, nil
}

func newTokenSource(ctx context.Context, credentialsFile string) (oauth2.TokenSource, error) {
	if credentialsFile == "" {
		ts, err := google.DefaultTokenSource(ctx, documentai.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("unable to find default credentials: %w", err)
		}
		return ts, nil
	}

	jsonKey, err := os.ReadFile(config.ExpandPath(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(jsonKey, documentai.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}

	return jwtConfig.TokenSource(ctx), nil
}

// Process sends content to the processor and converts the parsed document.
func (c *Client) Process(ctx context.Context, content []byte, mimeType string) (*model.Document, error) {
	req := &documentai.GoogleCloudDocumentaiV1ProcessRequest{
		RawDocument: &documentai.GoogleCloudDocumentaiV1RawDocument{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: mimeType,
		},
	}

	var resp *documentai.GoogleCloudDocumentaiV1ProcessResponse
	err := common.WithRetry(ctx, func() error {
		var err error
		resp, err = c.svc.Projects.Locations.Processors.Process(c.name, req).Context(ctx).Do()
		if err != nil {
			return classifyError(err)
		}
		return nil
	}, common.DefaultRetryOptions())
	if err != nil {
		return nil, fmt.Errorf("document ai process: %w", err)
	}
	if resp.Document == nil {
		return nil, fmt.Errorf("document ai returned no document: %w", common.ErrEmptyDocument)
	}

	doc := convertDocument(resp.Document)
	c.logger.Info("Processed document with Document AI",
		"processor", c.name,
		"pages", doc.PageCount,
		"tables", len(doc.Tables))

	return doc, nil
}

// convertDocument flattens a Document AI document into text and tables.
func convertDocument(d *documentai.GoogleCloudDocumentaiV1Document) *model.Document {
	doc := &model.Document{
		Text:      d.Text,
		PageCount: len(d.Pages),
	}

	for _, page := range d.Pages {
		if page == nil {
			continue
		}
		for _, table := range page.Tables {
			if table == nil {
				continue
			}
			t := model.Table{Page: int(page.PageNumber)}
			if table.Layout != nil {
				t.Confidence = table.Layout.Confidence
			}
			for i, row := range table.HeaderRows {
				cells := rowText(d.Text, row)
				if i == 0 {
					t.Headers = cells
				} else {
					t.Rows = append(t.Rows, cells)
				}
			}
			for _, row := range table.BodyRows {
				t.Rows = append(t.Rows, rowText(d.Text, row))
			}
			doc.Tables = append(doc.Tables, t)
		}
	}

	return doc
}

func rowText(text string, row *documentai.GoogleCloudDocumentaiV1DocumentPageTableTableRow) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		if cell == nil || cell.Layout == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, anchorText(text, cell.Layout.TextAnchor))
	}
	return cells
}

// anchorText resolves the byte ranges of an anchor against the document text.
func anchorText(text string, anchor *documentai.GoogleCloudDocumentaiV1DocumentTextAnchor) string {
	if anchor == nil {
		return ""
	}
	if anchor.Content != "" {
		return strings.TrimSpace(anchor.Content)
	}

	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		b.WriteString(text[start:end])
	}
	return strings.TrimSpace(b.String())
}
