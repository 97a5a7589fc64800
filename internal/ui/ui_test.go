package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_BufferIsNot(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTY_NilIsNot(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestDetectCI_RespondsToEnv(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestDetectNoColor_RespondsToEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestNewRenderer_PlainWhenForced(t *testing.T) {
	r := NewRenderer(Config{Output: &bytes.Buffer{}, Plain: true})
	assert.IsType(t, &Plain{}, r)
}

func TestNewRenderer_PlainForPipes(t *testing.T) {
	r := NewRenderer(Config{Output: &bytes.Buffer{}})
	assert.IsType(t, &Plain{}, r)
}
