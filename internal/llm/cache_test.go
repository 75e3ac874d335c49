package llm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tradeflow/internal/model"
)

func TestResponseCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newResponseCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("non-existent")
		assert.False(t, found)

		resp := Response{
			Content: `{"tradelines":[]}`,
			Model:   "test-model",
			Usage:   model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		cache.set("key1", resp)

		retrieved, found := cache.get("key1")
		require.True(t, found)
		assert.Equal(t, resp, retrieved)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResponseCache(50 * time.Millisecond)
		defer cache.Close()

		cache.set("key2", Response{Content: "{}"})
		_, found := cache.get("key2")
		assert.True(t, found)

		time.Sleep(100 * time.Millisecond)

		_, found = cache.get("key2")
		assert.False(t, found)

		cache.evictExpired(time.Now())
		assert.Equal(t, 0, cache.size())
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newResponseCache(5 * time.Minute)
		defer cache.Close()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					cache.set("concurrent", Response{Content: "{}"})
					cache.get("concurrent")
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, cache.size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := newResponseCache(time.Minute)
		cache.Close()
		cache.Close()
	})
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("m1", Request{System: "sys", Prompt: "text"})
	assert.Equal(t, a, cacheKey("m1", Request{System: "sys", Prompt: "text"}))
	assert.NotEqual(t, a, cacheKey("m2", Request{System: "sys", Prompt: "text"}))
	assert.NotEqual(t, a, cacheKey("m1", Request{System: "sy", Prompt: "stext"}))
}
