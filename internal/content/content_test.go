package content

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTerms(t *testing.T) {
	page, err := LoadTerms("")
	require.NoError(t, err)
	assert.Equal(t, "Terms & Conditions", page.Title)
	assert.Equal(t, "January 2025", page.Updated)

	out, err := page.HTML()
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "Terms & Conditions", doc.Find("h1").Text())
	assert.Equal(t, 8, doc.Find("article h2").Length())
	assert.Equal(t, "1. Affiliate Disclosure", doc.Find("article h2").First().Text())
	assert.Contains(t, doc.Find("p.updated").Text(), "January 2025")

	href, ok := doc.Find(`article a[href^="mailto:"]`).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "mailto:keyu-affiliate@outlook.com", href)
}

func TestRenderSanitisesHTML(t *testing.T) {
	src := []byte("---\ntitle: Test\n---\n# Heading\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))\n")
	page, err := Render(src)
	require.NoError(t, err)

	assert.Equal(t, "Test", page.Title)
	assert.NotContains(t, string(page.Body), "<script")
	assert.NotContains(t, string(page.Body), "javascript:")
	assert.Contains(t, string(page.Body), "<h1")
}

func TestRenderWithoutFrontMatter(t *testing.T) {
	page, err := Render([]byte("plain *text*"))
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Contains(t, string(page.Body), "<em>text</em>")
}

func TestRenderBadFrontMatter(t *testing.T) {
	_, err := Render([]byte("---\ntitle: [unclosed\n---\nbody"))
	assert.Error(t, err)
}

func TestLoadTermsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Custom\n---\nHello"), 0o600))

	page, err := LoadTerms(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom", page.Title)

	_, err = LoadTerms(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
