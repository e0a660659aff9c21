// Package content renders the static markdown pages served next to the
// catalog API.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed terms.md
var defaultTerms []byte

// Page is a rendered markdown page.
type Page struct {
	Title   string
	Summary string
	Updated string
	Contact string
	Body    template.HTML
}

type frontMatter struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
	Updated string `yaml:"updated"`
	Contact string `yaml:"contact"`
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = newPagePolicy()
)

func newPagePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowURLSchemes("mailto", "http", "https")
	p.RequireNoFollowOnLinks(true)
	return p
}

// LoadTerms renders the terms page from path, or the embedded default when
// path is empty.
func LoadTerms(path string) (Page, error) {
	src := defaultTerms
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Page{}, fmt.Errorf("content: read %s: %w", path, err)
		}
		src = b
	}
	return Render(src)
}

// Render parses optional YAML front matter and renders the markdown body
// to sanitised HTML.
func Render(src []byte) (Page, error) {
	fm, body := splitFrontMatter(string(src))

	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render markdown: %w", err)
	}

	return Page{
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		Updated: strings.TrimSpace(front.Updated),
		Contact: strings.TrimSpace(front.Contact),
		Body:    template.HTML(policy.SanitizeBytes(buf.Bytes())),
	}, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", input
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | KEYU</title>
{{if .Summary}}<meta name="description" content="{{.Summary}}">{{end}}
</head>
<body>
<main class="page">
<h1>{{.Title}}</h1>
{{if .Updated}}<p class="updated">Last updated: {{.Updated}}</p>{{end}}
<article>{{.Body}}</article>
<a class="back" href="/">Back to Store</a>
</main>
</body>
</html>
`))

// HTML writes the page as a complete document.
func (p Page) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("content: execute template: %w", err)
	}
	return buf.Bytes(), nil
}
