package embed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_DimensionsAndNormalization(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vec := embedOne(t, e, "func main() {}")

	assert.Len(t, vec, StaticDimensions)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001, "vector should have unit length")
}

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	text := "func add(a, b int) int { return a + b }"
	first := embedOne(t, e, text)
	second := embedOne(t, e, text)

	assert.Equal(t, first, second, "same text should produce identical vectors")
}

func TestStaticEmbedder_DeterministicAcrossInstances(t *testing.T) {
	e1 := NewStaticEmbedder()
	e2 := NewStaticEmbedder()
	defer func() { _ = e1.Close() }()
	defer func() { _ = e2.Close() }()

	text := "func getUserById(id string) (*User, error)"

	assert.Equal(t, embedOne(t, e1, text), embedOne(t, e2, text))
}

func TestStaticEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	assert.NotEqual(t,
		embedOne(t, e, "func add()"),
		embedOne(t, e, "class Database"))
}

func TestStaticEmbedder_BlankTextsProduceZeroVectors(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vectors, err := e.Embed(context.Background(), []string{"", "   \t\n  ", "func main() {}"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, make([]float32, StaticDimensions), vectors[0])
	assert.Equal(t, make([]float32, StaticDimensions), vectors[1])
	assert.NotEqual(t, make([]float32, StaticDimensions), vectors[2])
}

func TestStaticEmbedder_BatchKeepsInputOrder(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	texts := []string{"alpha beta", "gamma delta", "epsilon zeta"}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, text := range texts {
		assert.Equal(t, embedOne(t, e, text), vectors[i], "batch position %d", i)
	}
}

func TestStaticEmbedder_SimilarCodeScoresHigher(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	add := embedOne(t, e, "func add(a, b int) int { return a + b }")
	sum := embedOne(t, e, "func sum(x, y int) int { return x + y }")
	repo := embedOne(t, e, "class UserRepository { findById() }")

	addSum := cosineSimilarity(add, sum)
	addRepo := cosineSimilarity(add, repo)
	assert.Greater(t, addSum, addRepo,
		"similar code should score higher (add/sum: %.4f, add/repo: %.4f)", addSum, addRepo)
}

func TestStaticEmbedder_CamelCaseMatchesSpacedWords(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	camel := embedOne(t, e, "getUserById")
	spaced := embedOne(t, e, "get user by id")

	similarity := cosineSimilarity(camel, spaced)
	assert.Greater(t, similarity, 0.3,
		"camelCase should tokenize like spaced words (similarity: %.4f)", similarity)
}

func TestStaticEmbedder_SnakeCaseMatchesSpacedWords(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	snake := embedOne(t, e, "get_user_by_id")
	spaced := embedOne(t, e, "get user by id")

	similarity := cosineSimilarity(snake, spaced)
	assert.Greater(t, similarity, 0.3,
		"snake_case should tokenize like spaced words (similarity: %.4f)", similarity)
}

func TestStaticEmbedder_StopWordsFiltered(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	keywords := embedOne(t, e, "func return int string bool void")
	verbs := embedOne(t, e, "calculate process validate")

	similarity := cosineSimilarity(keywords, verbs)
	assert.Less(t, similarity, 0.5,
		"keyword-only text should diverge from real identifiers (similarity: %.4f)", similarity)
}

func TestStaticEmbedder_UnicodeText(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	texts := []string{
		"func 日本語() {}",
		"// Комментарий на русском",
		"const emoji = '🚀'",
	}
	vectors, err := e.Embed(context.Background(), texts)

	require.NoError(t, err)
	for i, vec := range vectors {
		assert.Len(t, vec, StaticDimensions, "text %d", i)
	}
}

func TestStaticEmbedder_LongTextStaysNormalized(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	vec := embedOne(t, e, strings.Repeat("word ", 10000))

	assert.Len(t, vec, StaticDimensions)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestStaticEmbedder_CloseIsIdempotent(t *testing.T) {
	e := NewStaticEmbedder()

	assert.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}

func TestStaticEmbedder_EmbedAfterClose(t *testing.T) {
	e := NewStaticEmbedder()
	_ = e.Close()

	_, err := e.Embed(context.Background(), []string{"test"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestStaticEmbedder_Identity(t *testing.T) {
	e := NewStaticEmbedder()
	defer func() { _ = e.Close() }()

	assert.Equal(t, StaticDimensions, e.Dimensions())
	assert.Equal(t, ModelStatic, e.ModelName())
}

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"simple", []string{"simple"}},
		{"getUserById", []string{"get", "User", "By", "Id"}},
		{"HTTPRequest", []string{"HTTP", "Request"}},
		{"parseJSONData", []string{"parse", "JSON", "Data"}},
		{"XMLHttpRequest", []string{"XML", "Http", "Request"}},
		{"getID", []string{"get", "ID"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCamelCase(tt.input))
		})
	}
}

func TestSplitCodeToken(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"get_user_by_id", []string{"get", "user", "by", "id"}},
		{"MAX_BUFFER_SIZE", []string{"MAX", "BUFFER", "SIZE"}},
		{"mixed_camelCase", []string{"mixed", "camel", "Case"}},
		{"__dunder__", []string{"dunder"}},
		{"plain", []string{"plain"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCodeToken(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"getUserById(id string)", []string{"get", "user", "by", "id", "id", "string"}},
		{"snake_case_name", []string{"snake", "case", "name"}},
		{"x == 42", []string{"x", "42"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.input))
		})
	}
}

func TestExtractNgrams(t *testing.T) {
	assert.Equal(t, []string{"abc", "bcd", "cde"}, extractNgrams("abcde", 3))
	assert.Nil(t, extractNgrams("ab", 3))
}
