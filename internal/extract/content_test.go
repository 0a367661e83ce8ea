package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title> Acme Q3 Results </title><style>body{}</style></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<main>
  <h1>Quarterly   results</h1>
  <p>Revenue grew <b>12%</b> year over year.</p>
  <script>track()</script>
  <ul><li>Margin expanded</li><li>Guidance raised</li></ul>
</main>
<footer>Copyright Acme</footer>
</body>
</html>`

func TestMainText_OnlyMain(t *testing.T) {
	page, err := MainText(samplePage, true)
	require.NoError(t, err)

	assert.Equal(t, "Acme Q3 Results", page.Title)
	assert.Equal(t, "# Quarterly results\n\nRevenue grew 12% year over year.\n\n- Margin expanded\n\n- Guidance raised", page.Markdown)
	assert.NotContains(t, page.Markdown, "track()")
	assert.NotContains(t, page.Markdown, "Home")
	assert.NotContains(t, page.Markdown, "Copyright")
}

func TestMainText_FullDocument(t *testing.T) {
	page, err := MainText(samplePage, false)
	require.NoError(t, err)

	assert.Contains(t, page.Markdown, "Home About")
	assert.Contains(t, page.Markdown, "Copyright Acme")
	assert.NotContains(t, page.Markdown, "body{}")
}

func TestMainText_FallsBackToArticleThenBody(t *testing.T) {
	page, err := MainText(`<html><body><div>menu</div><article><p>Story</p></article></body></html>`, true)
	require.NoError(t, err)
	assert.Equal(t, "Story", page.Markdown)

	page, err = MainText(`<p>Just text</p>`, true)
	require.NoError(t, err)
	assert.Equal(t, "Just text", page.Markdown)
	assert.Empty(t, page.Title)
}
