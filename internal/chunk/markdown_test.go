package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_Markdown_HeadingSections(t *testing.T) {
	source := `# Guide

Welcome to the project.

## Install

Run the installer.

## Usage

Call the binary.
`
	chunks := chunkString(t, "README.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[0].Text, "# Guide")
	assert.Contains(t, chunks[0].Text, "Welcome")
	assert.Contains(t, chunks[1].Text, "## Install")
	assert.Contains(t, chunks[2].Text, "## Usage")

	assert.Equal(t, 1, chunks[0].Span.StartLine)
	assert.Equal(t, 5, chunks[1].Span.StartLine)
	for _, ch := range chunks {
		assert.Nil(t, ch.Symbol, "markdown chunks carry no symbol")
	}
}

func TestChunker_Markdown_FencedHeadingDoesNotSplit(t *testing.T) {
	source := "# Doc\n\n```sh\n# this is a shell comment\necho hi\n```\n\nTail text.\n"
	chunks := chunkString(t, "doc.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 1, "heading-looking line inside a fence must not split")
	assert.Contains(t, chunks[0].Text, "shell comment")
}

func TestChunker_Markdown_TildeFence(t *testing.T) {
	source := "# Doc\n\n~~~\n## not a heading\n~~~\n\n## Real\n\ntext\n"
	chunks := chunkString(t, "doc.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "## not a heading")
	assert.Contains(t, chunks[1].Text, "## Real")
}

func TestChunker_Markdown_Frontmatter(t *testing.T) {
	source := `---
title: Quickstart
weight: 10
---
# Quickstart

Do the thing.
`
	chunks := chunkString(t, "quickstart.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "title: Quickstart")
	assert.Equal(t, 1, chunks[0].Span.StartLine)
	assert.Equal(t, 4, chunks[0].Span.EndLine)
	assert.Contains(t, chunks[1].Text, "# Quickstart")
	assert.Equal(t, 5, chunks[1].Span.StartLine)
}

func TestChunker_Markdown_LargeSectionSplits(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Reference\n\n")
	for i := 0; i < 300; i++ {
		b.WriteString("Entry describing one option in detail.\n")
	}
	source := b.String()

	chunks := chunkString(t, "reference.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].Span.EndLine+1, chunks[i].Span.StartLine)
	}
}

func TestChunker_Markdown_HeadingOnlySections(t *testing.T) {
	source := "# A\n## B\n"
	chunks := chunkString(t, "outline.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 2, "bare headings still get covered")
	assert.Equal(t, "# A", chunks[0].Text)
	assert.Equal(t, "## B", chunks[1].Text)
}

func TestChunker_Markdown_NoHeadings(t *testing.T) {
	source := "Just a paragraph.\n\nAnother paragraph.\n"
	chunks := chunkString(t, "plain.md", source)
	requireSpanInvariants(t, source, chunks)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Just a paragraph.")
}

func TestChunker_Markdown_MDXExtension(t *testing.T) {
	source := "# Component\n\n<Demo prop=\"x\" />\n"
	chunks := chunkString(t, "page.mdx", source)
	requireSpanInvariants(t, source, chunks)
	require.Len(t, chunks, 1)
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"# Title", true},
		{"###### Deep", true},
		{"####### TooDeep", false},
		{"#NoSpace", false},
		{"#", false},
		{"  # Indented", false},
		{"plain text", false},
		{"#\ttab", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isHeading(tt.line), "line %q", tt.line)
	}
}

func TestFrontmatterEnd(t *testing.T) {
	lines := []string{"---", "a: 1", "---", "# Doc"}
	end, ok := frontmatterEnd(lines)
	require.True(t, ok)
	assert.Equal(t, 3, end)

	_, ok = frontmatterEnd([]string{"# Doc", "---"})
	assert.False(t, ok)

	_, ok = frontmatterEnd([]string{"---", "never closed"})
	assert.False(t, ok)
}
