package embed

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
		{"a", 1},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
		{strings.Repeat("x", 2048), 512},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "EstimateTokens(%q)", tt.text)
	}
}

func TestEstimateTokens_SameAcrossProviders(t *testing.T) {
	text := "func main() { fmt.Println(42) }"

	providers := []Embedder{
		NewStaticEmbedder(),
		NewNoneEmbedder(),
	}
	for _, p := range providers {
		assert.Equal(t, EstimateTokens(text), p.EstimateTokens(text), "provider %s", p.ModelName())
	}
}

func TestNormalizeVector(t *testing.T) {
	normalized := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)
	assert.InDelta(t, 1.0, vectorMagnitude(normalized), 1e-6)
}

func TestNormalizeVector_ZeroVectorUnchanged(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, normalizeVector(zero))
}
