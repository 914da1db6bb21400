// Package render turns the optimized article into what the preview pane shows.
package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

const linkSuggestionsMarker = "internal linking suggestions"

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// metaLineRe matches "Key: value", optionally bolded as **Key:** or **Key**:.
	metaLineRe = regexp.MustCompile(`^\*{0,2}([A-Za-z][A-Za-z _-]*)\*{0,2}:\*{0,2}\s*(.*)$`)
	h1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Meta is the SEO metadata found in the article front matter.
type Meta struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Document is an optimized article split into its display parts.
type Document struct {
	Meta            Meta   `json:"meta"`
	Preview         string `json:"preview"`
	LinkSuggestions string `json:"link_suggestions,omitempty"`
}

// Split separates metadata, the readable body and the trailing internal
// linking suggestions. Text without any of these is returned whole as Preview.
func Split(article string) Document {
	var doc Document
	body := strings.TrimSpace(strings.ReplaceAll(article, "\r\n", "\n"))

	if head, rest, ok := cutLeadingBlock(body); ok {
		doc.Meta = parseMeta(head)
		body = rest
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), linkSuggestionsMarker) {
			doc.LinkSuggestions = strings.TrimSpace(strings.Join(lines[i:], "\n"))
			body = strings.Join(lines[:i], "\n")
			break
		}
	}
	doc.Preview = strings.TrimSpace(trimTrailingRule(body))
	if doc.Meta.Title == "" {
		if m := h1Re.FindStringSubmatch(doc.Preview); m != nil {
			doc.Meta.Title = strings.TrimSpace(m[1])
		}
	}
	return doc
}

// cutLeadingBlock finds either YAML front matter (--- ... ---) at the top, or
// a block of "Key: value" lines naming the meta description that ends in a
// --- line. Heading lines above such a block stay in rest.
func cutLeadingBlock(body string) (head, rest string, ok bool) {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 {
		return "", body, false
	}
	if isRule(lines[0]) {
		for i := 1; i < len(lines); i++ {
			if isRule(lines[i]) {
				return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
			}
		}
		return "", body, false
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isRule(lines[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return "", body, false
	}
	var headings, meta []string
	hasDescription := false
	for _, line := range lines[:end] {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			if len(meta) > 0 {
				return "", body, false
			}
			headings = append(headings, trimmed)
		default:
			m := metaLineRe.FindStringSubmatch(trimmed)
			if m == nil {
				return "", body, false
			}
			if strings.EqualFold(strings.TrimSpace(m[1]), "meta description") {
				hasDescription = true
			}
			meta = append(meta, trimmed)
		}
	}
	if !hasDescription {
		return "", body, false
	}
	rest = strings.Join(lines[end+1:], "\n")
	if len(headings) > 0 {
		rest = strings.Join(headings, "\n\n") + "\n\n" + strings.TrimSpace(rest)
	}
	return strings.Join(meta, "\n"), rest, true
}

func isRule(line string) bool {
	return strings.TrimSpace(line) == "---"
}

func trimTrailingRule(body string) string {
	body = strings.TrimSpace(body)
	for strings.HasSuffix(body, "---") {
		body = strings.TrimSpace(strings.TrimSuffix(body, "---"))
	}
	return body
}

type frontMatter struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	MetaDescription string `yaml:"meta_description"`
	Keywords        any    `yaml:"keywords"`
}

// parseMeta reads YAML front matter, falling back to "Meta Description:" prose.
func parseMeta(head string) Meta {
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(head), &fm); err == nil {
		m := Meta{Title: fm.Title, Description: fm.Description, Keywords: keywords(fm.Keywords)}
		if m.Description == "" {
			m.Description = fm.MetaDescription
		}
		if m.Title != "" || m.Description != "" || len(m.Keywords) > 0 {
			return m
		}
	}

	var m Meta
	for _, line := range strings.Split(head, "\n") {
		clean := strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		key, val, found := strings.Cut(clean, ":")
		if !found {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "meta description", "description":
			m.Description = strings.TrimSpace(val)
		case "title", "meta title":
			m.Title = strings.TrimSpace(val)
		case "keywords":
			m.Keywords = keywords(val)
		}
	}
	return m
}

func keywords(v any) []string {
	var out []string
	switch kw := v.(type) {
	case string:
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	case []any:
		for _, k := range kw {
			if s, ok := k.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// HTML converts markdown to HTML for the preview pane.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
