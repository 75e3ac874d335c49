package model

// RawRecord is an untrusted field dictionary as produced by an extraction
// collaborator. Keys may be missing and values may have any type.
type RawRecord map[string]any

// Clone returns a shallow copy of the record.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RawExtraction is the unnormalized output of an extraction run.
type RawExtraction struct {
	ConsumerInfo RawRecord   `json:"consumer_info"`
	Tradelines   []RawRecord `json:"tradelines"`
}

// Table is a table detected in a source document.
type Table struct {
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
	Page       int        `json:"page,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
}

// Document is the text and tables extracted from a credit report.
type Document struct {
	Source     string  `json:"source,omitempty"`
	SourceHash string  `json:"source_hash,omitempty"` // SHA-256 of the loaded file
	Text       string  `json:"text"`
	Tables     []Table `json:"tables,omitempty"`
	PageCount  int     `json:"page_count,omitempty"`
}

// TokenUsage counts model tokens consumed by an extraction.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates u into the receiver.
func (t *TokenUsage) Add(u TokenUsage) {
	t.PromptTokens += u.PromptTokens
	t.CompletionTokens += u.CompletionTokens
	t.TotalTokens += u.TotalTokens
}

// Extraction is a RawExtraction plus details of the run that produced it.
type Extraction struct {
	Model  string        `json:"model,omitempty"`
	Raw    RawExtraction `json:"raw"`
	Usage  TokenUsage    `json:"usage"`
	Chunks int           `json:"chunks"`
}
