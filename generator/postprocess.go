package generator

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*[ \t]*\n(.*?)\n?```$")
)

// StripWrappingFence removes a code fence wrapping the whole text, as models
// like to answer with ```markdown ... ```. Inner fences are left alone.
func StripWrappingFence(raw string) string {
	md := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(md); m != nil {
		return strings.TrimSpace(m[1])
	}
	return md
}

// Outline is the JSON shape the planning prompt asks for.
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

type OutlineSection struct {
	Heading   string   `json:"heading"`
	KeyPoints []string `json:"key_points"`
}

// ParseOutline decodes the planning output when it is JSON. The outline is
// only advisory, so ok is false rather than an error on anything else.
func ParseOutline(text string) (*Outline, bool) {
	s := StripWrappingFence(text)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var o Outline
	if err := json.Unmarshal([]byte(s[start:end+1]), &o); err != nil {
		return nil, false
	}
	if o.Title == "" && len(o.Sections) == 0 {
		return nil, false
	}
	return &o, true
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func defaultDigest(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
