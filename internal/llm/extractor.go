package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/tradeflow/internal/chunk"
	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/normalize"
	"github.com/Veraticus/tradeflow/internal/service"
)

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	DocumentType    string
	Chunking        chunk.Options
	Retry           service.RetryOptions
	CacheTTL        time.Duration
	RateLimit       int // Requests per minute
	Concurrency     int // Chunks in flight at once
	MaxPromptTokens int // Per-chunk text budget, 0 disables truncation
}

// DefaultExtractorOptions returns the options used by the CLI.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		DocumentType: DefaultDocumentType,
		Chunking:     chunk.DefaultOptions(),
		Retry:        common.DefaultRetryOptions(),
		CacheTTL:     24 * time.Hour,
		RateLimit:    DefaultRateLimit,
		Concurrency:  1,
	}
}

// Extractor turns a document into raw records by prompting a model once per chunk.
type Extractor struct {
	client  Client
	chunker *chunk.Chunker
	prompts *PromptBuilder
	limiter *rateLimiter
	cache   *responseCache
	logger  *slog.Logger
	opts    ExtractorOptions
}

var _ service.Extractor = (*Extractor)(nil)

// NewExtractor creates an Extractor around client. A nil logger uses slog.Default.
func NewExtractor(client Client, opts ExtractorOptions, logger *slog.Logger) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required: %w", common.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.DocumentType == "" {
		opts.DocumentType = DefaultDocumentType
	}

	chunker, err := chunk.New(opts.Chunking)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}

	return &Extractor{
		client:  client,
		chunker: chunker,
		prompts: prompts,
		limiter: newRateLimiter(opts.RateLimit),
		cache:   newResponseCache(opts.CacheTTL),
		logger:  logger,
		opts:    opts,
	}, nil
}

// Close releases the response cache.
func (e *Extractor) Close() {
	e.cache.Close()
}

// chunkResult is the parsed reply for one chunk.
type chunkResult struct {
	raw   model.RawExtraction
	usage model.TokenUsage
}

// Extract prompts the model for every chunk of doc and merges the replies.
// Tradelines are deduplicated across chunks; the consumer record takes the
// first populated value for each key.
func (e *Extractor) Extract(ctx context.Context, doc *model.Document) (*model.Extraction, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil: %w", common.ErrEmptyDocument)
	}
	if doc.Text == "" && len(doc.Tables) == 0 {
		return nil, common.ErrEmptyDocument
	}

	system, err := e.prompts.BuildSystemPrompt()
	if err != nil {
		return nil, err
	}

	chunks := e.chunker.Split(doc.Text)
	results := make([]chunkResult, len(chunks))

	start := time.Now()
	e.logger.Info("Extracting document",
		"source", doc.Source,
		"model", e.client.Model(),
		"chunks", len(chunks),
		"estimated_tokens", chunk.EstimateTokens(doc.Text))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, text := range chunks {
		data := PromptData{
			DocumentType: e.opts.DocumentType,
			Text:         chunk.Truncate(text, e.opts.MaxPromptTokens),
			ChunkNumber:  i + 1,
			ChunkCount:   len(chunks),
		}
		if i == 0 {
			data.Tables = doc.Tables
		}
		g.Go(func() error {
			res, err := e.extractChunk(gctx, system, data)
			if err != nil {
				return fmt.Errorf("chunk %d of %d: %w", data.ChunkNumber, data.ChunkCount, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", common.ErrExtractionFailed, err)
	}

	out := &model.Extraction{
		Model:  e.client.Model(),
		Chunks: len(chunks),
	}
	var tradelines []model.RawRecord
	for _, res := range results {
		out.Usage.Add(res.usage)
		out.Raw.ConsumerInfo = mergeConsumer(out.Raw.ConsumerInfo, res.raw.ConsumerInfo)
		tradelines = append(tradelines, res.raw.Tradelines...)
	}
	out.Raw.Tradelines = chunk.Dedupe(tradelines)

	e.logger.Info("Extraction complete",
		"source", doc.Source,
		"tradelines", len(out.Raw.Tradelines),
		"duplicates_removed", len(tradelines)-len(out.Raw.Tradelines),
		"total_tokens", out.Usage.TotalTokens,
		"duration", time.Since(start))

	return out, nil
}

func (e *Extractor) extractChunk(ctx context.Context, system string, data PromptData) (chunkResult, error) {
	prompt, err := e.prompts.BuildExtractionPrompt(data)
	if err != nil {
		return chunkResult{}, err
	}
	req := Request{System: system, Prompt: prompt}
	key := cacheKey(e.client.Model(), req)

	if cached, ok := e.cache.get(key); ok {
		raw, err := ParseExtraction(cached.Content)
		if err == nil {
			e.logger.Debug("Using cached response", "chunk", data.ChunkNumber)
			return chunkResult{raw: raw}, nil
		}
	}

	var result chunkResult
	err = common.WithRetry(ctx, func() error {
		if err := e.limiter.wait(ctx); err != nil {
			return err
		}

		resp, err := e.client.Complete(ctx, req)
		if err != nil {
			return err
		}
		result.usage.Add(resp.Usage)

		raw, err := ParseExtraction(resp.Content)
		if err != nil {
			e.logger.Warn("Discarding unparseable model response",
				"chunk", data.ChunkNumber,
				"error", err)
			return fmt.Errorf("%w: %w", common.ErrTransient, err)
		}

		result.raw = raw
		e.cache.set(key, resp)
		return nil
	}, e.opts.Retry)
	if err != nil {
		return chunkResult{}, err
	}

	return result, nil
}

// mergeConsumer fills keys missing from base with populated values from next.
func mergeConsumer(base, next model.RawRecord) model.RawRecord {
	if len(next) == 0 {
		return base
	}
	if base == nil {
		return next.Clone()
	}
	for k, v := range next {
		if !normalize.Present(base[k]) && normalize.Present(v) {
			base[k] = v
		}
	}
	return base
}
