package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tradeflow/internal/model"
)

// ErrInvalidResponse is returned when a model response holds no usable JSON.
var ErrInvalidResponse = errors.New("invalid model response")

// CleanJSON extracts the first complete JSON object or array from a model reply.
// Markdown fences and any prose around the value are discarded.
func CleanJSON(content string) (string, error) {
	s := strings.TrimSpace(content)
	if fenced, ok := strings.CutPrefix(s, "```"); ok {
		if nl := strings.IndexByte(fenced, '\n'); nl >= 0 {
			fenced = fenced[nl+1:]
		}
		if end := strings.LastIndex(fenced, "```"); end >= 0 {
			fenced = fenced[:end]
		}
		s = strings.TrimSpace(fenced)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON value found", ErrInvalidResponse)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: unterminated JSON value", ErrInvalidResponse)
}

// ParseExtraction decodes a model reply into a RawExtraction.
// The reply may be an object with consumer_info and tradelines, or a bare
// array of tradelines.
func ParseExtraction(content string) (model.RawExtraction, error) {
	var out model.RawExtraction

	cleaned, err := CleanJSON(content)
	if err != nil {
		return out, err
	}

	if strings.HasPrefix(cleaned, "[") {
		var tradelines []model.RawRecord
		if err := json.Unmarshal([]byte(cleaned), &tradelines); err != nil {
			return out, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		out.Tradelines = compactRecords(tradelines)
		return out, nil
	}

	var envelope struct {
		ConsumerInfo model.RawRecord   `json:"consumer_info"`
		Consumer     model.RawRecord   `json:"consumer"`
		Tradelines   []model.RawRecord `json:"tradelines"`
		Accounts     []model.RawRecord `json:"accounts"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	out.ConsumerInfo = envelope.ConsumerInfo
	if out.ConsumerInfo == nil {
		out.ConsumerInfo = envelope.Consumer
	}
	out.Tradelines = envelope.Tradelines
	if out.Tradelines == nil {
		out.Tradelines = envelope.Accounts
	}
	out.Tradelines = compactRecords(out.Tradelines)

	return out, nil
}

// compactRecords drops null entries from a decoded tradeline list.
func compactRecords(records []model.RawRecord) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
