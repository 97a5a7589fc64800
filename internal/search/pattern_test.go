package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

func TestBuildPattern_PlainRegex(t *testing.T) {
	re, err := buildPattern(Options{Pattern: `func \w+\(`})

	require.NoError(t, err)
	assert.True(t, re.MatchString("func Open("))
	assert.False(t, re.MatchString("var Open ="))
}

func TestBuildPattern_FixedStringEscapesMetas(t *testing.T) {
	re, err := buildPattern(Options{Pattern: "a.b(*)", FixedString: true})

	require.NoError(t, err)
	assert.True(t, re.MatchString("x := a.b(*)"))
	assert.False(t, re.MatchString("aXb()"))
}

func TestBuildPattern_WordBoundary(t *testing.T) {
	re, err := buildPattern(Options{Pattern: "cat", WordBoundary: true})

	require.NoError(t, err)
	assert.True(t, re.MatchString("the cat sat"))
	assert.False(t, re.MatchString("concatenate"))
}

func TestBuildPattern_WordBoundaryGroupsAlternation(t *testing.T) {
	re, err := buildPattern(Options{Pattern: "cat|dog", WordBoundary: true})

	require.NoError(t, err)
	assert.True(t, re.MatchString("a dog barked"))
	assert.False(t, re.MatchString("dogma"), "boundary must wrap the whole alternation")
}

func TestBuildPattern_IgnoreCase(t *testing.T) {
	re, err := buildPattern(Options{Pattern: "todo", IgnoreCase: true})

	require.NoError(t, err)
	assert.True(t, re.MatchString("// TODO: fix"))
}

func TestBuildPattern_InvalidRegexIsOptionsError(t *testing.T) {
	_, err := buildPattern(Options{Pattern: "[unclosed"})

	require.Error(t, err)
	var qe *qerrors.QuarryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerrors.ErrCodeInvalidPattern, qe.Code)
	assert.Contains(t, qe.Suggestion, "-F")
}
