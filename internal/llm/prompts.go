package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Veraticus/tradeflow/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultDocumentType labels documents when the caller does not.
const DefaultDocumentType = "credit_report"

// PromptBuilder renders extraction prompts from embedded templates.
type PromptBuilder struct {
	templates map[string]*template.Template
}

// NewPromptBuilder parses the embedded prompt templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	pb := &PromptBuilder{
		templates: make(map[string]*template.Template),
	}

	funcMap := template.FuncMap{
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
	}

	for _, name := range []string{"system_prompt", "extraction_prompt"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(fmt.Sprintf("%s.tmpl", name)).Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pb.templates[name] = tmpl
	}

	return pb, nil
}

// PromptData contains everything rendered into one extraction prompt.
type PromptData struct {
	DocumentType string
	Text         string
	Tables       []model.Table
	ChunkNumber  int // 1-based
	ChunkCount   int
}

// BuildSystemPrompt returns the system instruction shared by every chunk.
func (pb *PromptBuilder) BuildSystemPrompt() (string, error) {
	var buf bytes.Buffer
	if err := pb.templates["system_prompt"].ExecuteTemplate(&buf, "system_prompt.tmpl", nil); err != nil {
		return "", fmt.Errorf("failed to execute system_prompt template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildExtractionPrompt creates the prompt for one chunk of a document.
func (pb *PromptBuilder) BuildExtractionPrompt(data PromptData) (string, error) {
	if data.DocumentType == "" {
		data.DocumentType = DefaultDocumentType
	}
	if data.ChunkCount < 1 {
		data.ChunkCount = 1
	}
	if data.ChunkNumber < 1 {
		data.ChunkNumber = 1
	}

	var buf bytes.Buffer
	if err := pb.templates["extraction_prompt"].ExecuteTemplate(&buf, "extraction_prompt.tmpl", data); err != nil {
		return "", fmt.Errorf("failed to execute extraction_prompt template: %w", err)
	}
	return buf.String(), nil
}
