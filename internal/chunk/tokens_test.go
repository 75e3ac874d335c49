package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 4000), 1000},
		{"éééé", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "text %q", tt.text)
	}
}

func TestTruncate(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		text := strings.Repeat("a", 400)
		assert.Equal(t, text, Truncate(text, 100))
	})

	t.Run("disabled", func(t *testing.T) {
		text := strings.Repeat("a", 400)
		assert.Equal(t, text, Truncate(text, 0))
	})

	t.Run("keeps head and tail", func(t *testing.T) {
		text := strings.Repeat("h", 500) + strings.Repeat("m", 1000) + strings.Repeat("t", 500)
		got := Truncate(text, 300)

		keep := 300 * CharsPerToken / 3
		assert.Equal(t, strings.Repeat("h", keep)+TruncationMarker+strings.Repeat("t", keep), got)
		assert.NotContains(t, got, "m")
		assert.Less(t, EstimateTokens(got), EstimateTokens(text))
	})
}
