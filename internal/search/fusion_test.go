package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fusionCorpus() *corpus {
	return testCorpus(map[string][]string{
		"a.go": {"alpha chunk"},
		"b.go": {"beta chunk"},
		"c.go": {"gamma chunk"},
	})
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Nil(t, fuse(fusionCorpus(), nil, nil, DefaultRRFConstant, 0.5, 0.5))
}

func TestFuse_TopScoreIsNormalizedToOne(t *testing.T) {
	c := fusionCorpus()
	lex := []scored{{file: "a.go", ci: 0, score: 3.2}, {file: "b.go", ci: 0, score: 1.1}}
	sem := []scored{{file: "a.go", ci: 0, score: 0.9}}

	results := fuse(c, lex, sem, DefaultRRFConstant, DefaultLexicalWeight, DefaultSemanticWeight)

	require.NotEmpty(t, results)
	assert.Equal(t, "a.go", results[0].file)
	assert.InDelta(t, 1.0, results[0].rrf, 1e-9)
	for _, f := range results[1:] {
		assert.LessOrEqual(t, f.rrf, 1.0)
	}
}

func TestFuse_FlagsResultsInBothLists(t *testing.T) {
	c := fusionCorpus()
	lex := []scored{{file: "a.go", ci: 0, score: 2.0}, {file: "b.go", ci: 0, score: 1.0}}
	sem := []scored{{file: "a.go", ci: 0, score: 0.8}}

	results := fuse(c, lex, sem, DefaultRRFConstant, 0.5, 0.5)

	require.Len(t, results, 2)
	assert.Equal(t, "a.go", results[0].file)
	assert.True(t, results[0].inBoth)
	assert.False(t, results[1].inBoth)
}

func TestFuse_CarriesSourceScores(t *testing.T) {
	c := fusionCorpus()
	lex := []scored{{file: "a.go", ci: 0, score: 2.5}}
	sem := []scored{{file: "a.go", ci: 0, score: 0.75}}

	results := fuse(c, lex, sem, DefaultRRFConstant, 0.5, 0.5)

	require.Len(t, results, 1)
	assert.Equal(t, 2.5, results[0].lexScore)
	assert.Equal(t, 0.75, results[0].semScore)
}

func TestFuse_SemanticWeightWins(t *testing.T) {
	c := fusionCorpus()
	lex := []scored{{file: "a.go", ci: 0, score: 1.0}}
	sem := []scored{{file: "b.go", ci: 0, score: 0.9}}

	results := fuse(c, lex, sem, DefaultRRFConstant, DefaultLexicalWeight, DefaultSemanticWeight)

	require.Len(t, results, 2)
	assert.Equal(t, "b.go", results[0].file, "0.65 semantic weight outranks 0.35 lexical at equal rank")
}

func TestFuse_EqualWeightsTieBreakByPath(t *testing.T) {
	c := fusionCorpus()
	// Symmetric evidence: each side holds one chunk at rank one, so the
	// fused scores are exactly equal and the path decides.
	lex := []scored{{file: "b.go", ci: 0, score: 1.0}}
	sem := []scored{{file: "a.go", ci: 0, score: 0.9}}

	results := fuse(c, lex, sem, DefaultRRFConstant, 0.5, 0.5)

	require.Len(t, results, 2)
	assert.Equal(t, "a.go", results[0].file)
	assert.Equal(t, "b.go", results[1].file)
}

func TestFuse_OutputOrderIsStableAcrossRuns(t *testing.T) {
	c := testCorpus(map[string][]string{
		"a.go": {"alpha chunk"},
		"b.go": {"beta chunk"},
		"c.go": {"gamma chunk"},
		"d.go": {"delta chunk"},
	})
	// Symmetric single-list pairs at equal weights produce exact rrf
	// ties, leaving map iteration as the only possible order entropy.
	lex := []scored{{file: "d.go", ci: 0, score: 2.0}, {file: "b.go", ci: 0, score: 1.0}}
	sem := []scored{{file: "c.go", ci: 0, score: 0.9}, {file: "a.go", ci: 0, score: 0.8}}

	first := fuse(c, lex, sem, DefaultRRFConstant, 0.5, 0.5)
	require.Len(t, first, 4)
	order := make([]string, len(first))
	for i, f := range first {
		order[i] = f.file
	}
	assert.Equal(t, []string{"c.go", "d.go", "a.go", "b.go"}, order)

	for i := 0; i < 20; i++ {
		again := fuse(c, lex, sem, DefaultRRFConstant, 0.5, 0.5)
		require.Len(t, again, len(first))
		for j, f := range again {
			assert.Equal(t, order[j], f.file, "run %d position %d", i, j)
		}
	}
}

func TestFuse_LexicalOnlyStillRanks(t *testing.T) {
	c := fusionCorpus()
	lex := []scored{
		{file: "c.go", ci: 0, score: 3.0},
		{file: "a.go", ci: 0, score: 2.0},
		{file: "b.go", ci: 0, score: 1.0},
	}

	results := fuse(c, lex, nil, DefaultRRFConstant, 0.5, 0.5)

	require.Len(t, results, 3)
	assert.Equal(t, "c.go", results[0].file)
	assert.Equal(t, "a.go", results[1].file)
	assert.Equal(t, "b.go", results[2].file)
	assert.InDelta(t, 1.0, results[0].rrf, 1e-9)
}
