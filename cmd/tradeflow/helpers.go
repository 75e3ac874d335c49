package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/tradeflow/internal/chunk"
	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/config"
	"github.com/Veraticus/tradeflow/internal/docai"
	"github.com/Veraticus/tradeflow/internal/llm"
	"github.com/Veraticus/tradeflow/internal/pipeline"
	"github.com/Veraticus/tradeflow/internal/service"
	"github.com/Veraticus/tradeflow/internal/storage"
)

// envKeyReplacer maps llm.api_key to TRADEFLOW_LLM_API_KEY.
var envKeyReplacer = strings.NewReplacer(".", "_")

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString(config.KeyDatabasePath))
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	return storage.NewSQLiteStorage(dbPath)
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// llmConfig builds the model client settings, falling back to the
// provider's conventional API key variable.
func llmConfig() llm.Config {
	provider := strings.ToLower(viper.GetString(config.KeyLLMProvider))

	apiKey := viper.GetString(config.KeyLLMAPIKey)
	if apiKey == "" {
		apiKey = os.Getenv(config.APIKeyEnv(provider))
	}

	return llm.Config{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       viper.GetString(config.KeyLLMModel),
		BaseURL:     viper.GetString(config.KeyLLMBaseURL),
		MaxRetries:  viper.GetInt(config.KeyLLMMaxRetries),
		RetryDelay:  viper.GetDuration(config.KeyLLMRetryDelay),
		CacheTTL:    viper.GetDuration(config.KeyLLMCacheTTL),
		Timeout:     viper.GetDuration(config.KeyLLMTimeout),
		RateLimit:   viper.GetInt(config.KeyLLMRateLimit),
		Temperature: viper.GetFloat64(config.KeyLLMTemperature),
		MaxTokens:   viper.GetInt(config.KeyLLMMaxTokens),
	}
}

// createExtractor builds the model-backed extractor from configuration.
func createExtractor() (*llm.Extractor, error) {
	cfg := llmConfig()
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			fmt.Sprintf("No API key for %s: set llm.api_key or %s", cfg.Provider, config.APIKeyEnv(cfg.Provider)),
			common.ErrMissingConfig)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := llm.DefaultExtractorOptions()
	opts.Chunking = chunk.Options{
		Threshold: viper.GetInt(config.KeyChunkThreshold),
		Size:      viper.GetInt(config.KeyChunkSize),
		Overlap:   viper.GetInt(config.KeyChunkOverlap),
	}
	opts.Retry.MaxAttempts = cfg.MaxRetries
	if cfg.RetryDelay > 0 {
		opts.Retry.InitialDelay = cfg.RetryDelay
	}
	opts.CacheTTL = cfg.CacheTTL
	opts.RateLimit = cfg.RateLimit
	opts.Concurrency = viper.GetInt(config.KeyLLMConcurrency)

	return llm.NewExtractor(client, opts, slog.Default())
}

// createLoader builds a document loader. PDF and image support requires a
// Document AI processor; without one only text and JSON documents load.
func createLoader(ctx context.Context) (*docai.Loader, error) {
	cfg := docai.Config{
		Project:         viper.GetString(config.KeyDocAIProject),
		Location:        viper.GetString(config.KeyDocAILocation),
		ProcessorID:     viper.GetString(config.KeyDocAIProcessor),
		CredentialsFile: viper.GetString(config.KeyDocAICredentials),
		Endpoint:        viper.GetString(config.KeyDocAIEndpoint),
	}
	if cfg.Project == "" && cfg.ProcessorID == "" {
		slog.Debug("Document AI not configured, PDF loading disabled")
		return docai.NewLoader(nil, slog.Default()), nil
	}

	client, err := docai.NewClient(ctx, cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return docai.NewLoader(client, slog.Default()), nil
}

// pipelineConfig reads the normalization and validation settings.
func pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Normalize.MaskAccountNumbers = viper.GetBool(config.KeyMaskAccounts)
	cfg.Normalize.MaskSSN = viper.GetBool(config.KeyMaskSSN)

	cfg.Validation.MinConfidenceScore = viper.GetFloat64(config.KeyMinConfidence)
	cfg.Validation.Workers = viper.GetInt(config.KeyValidationWorkers)
	if raw := viper.GetString(config.KeyMaxReasonableBalance); raw != "" {
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s %q: %w", common.ErrInvalidConfig, config.KeyMaxReasonableBalance, raw, err)
		}
		cfg.Validation.MaxReasonableBalance = limit
	}
	return cfg, nil
}

// newProcessor wires a pipeline around store. extractor may be nil.
func newProcessor(extractor service.Extractor, store service.Storage) (*pipeline.Processor, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.New(extractor, store, cfg, slog.Default())
}
