// Package chunk splits long report text into overlapping windows that fit a
// model's context and merges the records extracted from each window.
package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions indicates chunk options that cannot produce windows.
var ErrInvalidOptions = errors.New("invalid chunk options")

// Default window sizes, in characters.
const (
	DefaultThreshold = 15000
	DefaultSize      = 15000
	DefaultOverlap   = 500
)

// Options control when and how text is split.
type Options struct {
	// Threshold is the length above which text is split.
	Threshold int
	// Size is the length of each window.
	Size int
	// Overlap is the number of characters shared by consecutive windows.
	Overlap int
}

// DefaultOptions returns the standard window sizes.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Size:      DefaultSize,
		Overlap:   DefaultOverlap,
	}
}

// Chunker splits text into overlapping windows.
type Chunker struct {
	opts Options
}

// New creates a chunker. Zero Threshold or Size select the defaults.
func New(opts Options) (*Chunker, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	switch {
	case opts.Threshold < 0:
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidOptions, opts.Threshold)
	case opts.Size < 0:
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOptions, opts.Size)
	case opts.Overlap < 0:
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidOptions, opts.Overlap)
	case opts.Overlap >= opts.Size:
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidOptions, opts.Overlap, opts.Size)
	}
	return &Chunker{opts: opts}, nil
}

// Options returns the effective options.
func (c *Chunker) Options() Options {
	return c.opts
}

// Split returns text unchanged as a single chunk when it is within the
// threshold, otherwise windows of Size characters where each window starts
// Size-Overlap characters after the previous one. Windows never split a rune.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.opts.Threshold {
		return []string{text}
	}

	step := c.opts.Size - c.opts.Overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+c.opts.Size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
