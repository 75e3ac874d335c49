// Package docai loads credit report documents into text and tables.
// Plain text and pre-extracted JSON are read directly; PDFs and images are
// sent to Google Document AI.
package docai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/service"
)

// MaxFileSize is the largest document the loader accepts.
const MaxFileSize = 20 << 20

// Processor turns binary documents into text and tables.
type Processor interface {
	Process(ctx context.Context, content []byte, mimeType string) (*model.Document, error)
}

// ErrNoProcessor is returned when a binary document is loaded without a processor.
var ErrNoProcessor = errors.New("document processor not configured")

// mimeTypes maps accepted binary extensions to their MIME type.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// Loader reads documents from disk.
type Loader struct {
	processor Processor
	logger    *slog.Logger
}

var _ service.DocumentLoader = (*Loader)(nil)

// NewLoader creates a Loader. processor may be nil when only text and JSON
// documents are loaded. A nil logger uses slog.Default.
func NewLoader(processor Processor, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{processor: processor, logger: logger}
}

// Load reads the document at path. The result carries the SHA-256 of the file.
func (l *Loader) Load(ctx context.Context, path string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, common.ErrUnsupportedDocument)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d: %w", path, info.Size(), MaxFileSize, common.ErrUnsupportedDocument)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%s: %w", path, common.ErrEmptyDocument)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var doc *model.Document
	switch ext {
	case ".txt", ".text":
		doc = &model.Document{Text: string(content), PageCount: 1}
	case ".json":
		doc, err = decodeDocument(content)
	default:
		mimeType, ok := mimeTypes[ext]
		if !ok {
			return nil, fmt.Errorf("%s: extension %q: %w", path, ext, common.ErrUnsupportedDocument)
		}
		if l.processor == nil {
			return nil, fmt.Errorf("%s: %w", path, ErrNoProcessor)
		}
		doc, err = l.processor.Process(ctx, content, mimeType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if strings.TrimSpace(doc.Text) == "" && len(doc.Tables) == 0 {
		return nil, fmt.Errorf("%s: %w", path, common.ErrEmptyDocument)
	}

	doc.Source = filepath.Base(path)
	doc.SourceHash = HashBytes(content)

	l.logger.Debug("Loaded document",
		"source", doc.Source,
		"pages", doc.PageCount,
		"tables", len(doc.Tables),
		"chars", len(doc.Text))

	return doc, nil
}

// decodeDocument reads a pre-extracted document. A bare JSON string is taken as the text.
func decodeDocument(content []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(content, &doc); err == nil {
		return &doc, nil
	}

	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return nil, fmt.Errorf("%w: not a document object or string: %w", common.ErrUnsupportedDocument, err)
	}
	return &model.Document{Text: text}, nil
}

// HashBytes returns the hex SHA-256 of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return HashBytes(content), nil
}
