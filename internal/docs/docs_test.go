package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummaryOnly(t *testing.T) {
	doc := Parse([]string{"Authenticates a user.", "Second line."})
	assert.Equal(t, "Authenticates a user.\nSecond line.", doc.Summary)
	assert.Empty(t, doc.Params)
	assert.False(t, doc.Empty())
}

func TestParseTags(t *testing.T) {
	doc := Parse([]string{
		"Authenticates a user.",
		"@param username The login name",
		"@param password The secret",
		"@return Auth token",
		"@example authenticate!(\"bob\", \"pw\", *ret)",
		"@throws invalid credentials",
		"@since 0.3",
	})

	assert.Equal(t, "Authenticates a user.", doc.Summary)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, Param{Name: "username", Description: "The login name"}, doc.Params[0])
	assert.Equal(t, "Auth token", doc.Returns)
	require.Len(t, doc.Examples, 1)
	require.Len(t, doc.Throws, 1)
	require.Len(t, doc.Custom, 1)
	assert.Equal(t, "since", doc.Custom[0].Name)
}

func TestParseMultiLineTagContent(t *testing.T) {
	doc := Parse([]string{
		"@param config The configuration map.",
		"Keys are channel names,",
		"values are arities.",
		"@return Nothing",
	})
	require.Len(t, doc.Params, 1)
	assert.Equal(t,
		"The configuration map.\nKeys are channel names,\nvalues are arities.",
		doc.Params[0].Description)
	assert.Equal(t, "Nothing", doc.Returns)
}

func TestMarkdownRendering(t *testing.T) {
	doc := Parse([]string{
		"Authenticates a user.",
		"@param username The login name",
		"@return Auth token",
		"@example authenticate!(\"bob\")",
	})
	md := doc.Markdown("authenticate")

	assert.Contains(t, md, "**authenticate**")
	assert.Contains(t, md, "Authenticates a user.")
	assert.Contains(t, md, "## Parameters")
	assert.Contains(t, md, "- **username**: The login name")
	assert.Contains(t, md, "## Returns")
	assert.Contains(t, md, "Auth token")
	assert.Contains(t, md, "```rholang\nauthenticate!(\"bob\")\n```")
}

func TestPlainText(t *testing.T) {
	doc := Parse([]string{
		"Does things.",
		"@param x The input",
		"@return A result",
	})
	plain := doc.PlainText()
	assert.Equal(t, "Does things.\nx: The input\nreturns: A result", plain)
}

func TestEmpty(t *testing.T) {
	assert.True(t, Parse(nil).Empty())
	assert.True(t, Parse([]string{"", "  "}).Empty())
}
