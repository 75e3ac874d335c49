package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/tradeflow/internal/chunk"
	"github.com/Veraticus/tradeflow/internal/llm"
	"github.com/Veraticus/tradeflow/internal/validation"
)

// EnvPrefix is prepended to environment overrides, e.g. TRADEFLOW_LLM_PROVIDER.
const EnvPrefix = "TRADEFLOW"

// Settings keys.
const (
	KeyDatabasePath = "database.path"

	KeyLogLevel  = "logging.level"
	KeyLogFormat = "logging.format"

	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMMaxRetries  = "llm.max_retries"
	KeyLLMRetryDelay  = "llm.retry_delay"
	KeyLLMRateLimit   = "llm.rate_limit"
	KeyLLMCacheTTL    = "llm.cache_ttl"
	KeyLLMTimeout     = "llm.timeout"
	KeyLLMTemperature = "llm.temperature"
	KeyLLMMaxTokens   = "llm.max_tokens"
	KeyLLMConcurrency = "llm.concurrency"

	KeyMinConfidence        = "validation.min_confidence"
	KeyMaxReasonableBalance = "validation.max_reasonable_balance"
	KeyValidationWorkers    = "validation.workers"

	KeyChunkThreshold = "chunking.threshold"
	KeyChunkSize      = "chunking.size"
	KeyChunkOverlap   = "chunking.overlap"

	KeyDocAIProject     = "docai.project"
	KeyDocAILocation    = "docai.location"
	KeyDocAIProcessor   = "docai.processor"
	KeyDocAICredentials = "docai.credentials"
	KeyDocAIEndpoint    = "docai.endpoint"

	KeyMaskAccounts = "normalize.mask_accounts"
	KeyMaskSSN      = "normalize.mask_ssn"
)

// SetDefaults registers the default value of every settings key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	v.SetDefault(KeyLLMProvider, "openai")
	v.SetDefault(KeyLLMMaxRetries, 3)
	v.SetDefault(KeyLLMRetryDelay, 2*time.Second)
	v.SetDefault(KeyLLMRateLimit, llm.DefaultRateLimit)
	v.SetDefault(KeyLLMCacheTTL, 24*time.Hour)
	v.SetDefault(KeyLLMTimeout, llm.DefaultTimeout)
	v.SetDefault(KeyLLMTemperature, llm.DefaultTemperature)
	v.SetDefault(KeyLLMMaxTokens, llm.DefaultMaxTokens)
	v.SetDefault(KeyLLMConcurrency, 2)

	v.SetDefault(KeyMinConfidence, validation.DefaultMinConfidenceScore)
	v.SetDefault(KeyMaxReasonableBalance, validation.DefaultMaxReasonableBalance.String())

	v.SetDefault(KeyChunkThreshold, chunk.DefaultThreshold)
	v.SetDefault(KeyChunkSize, chunk.DefaultSize)
	v.SetDefault(KeyChunkOverlap, chunk.DefaultOverlap)

	v.SetDefault(KeyDocAILocation, "us")

	v.SetDefault(KeyMaskAccounts, true)
	v.SetDefault(KeyMaskSSN, true)
}

// APIKeyEnv returns the conventional environment variable holding the key
// for provider, consulted when llm.api_key is unset.
func APIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}
