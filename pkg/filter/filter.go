// Package filter selects paper records by keyword. Matching is a plain
// case-insensitive substring search; multi-word keywords are matched as phrases.
package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/telekom/paper-digest/pkg/paper"
)

// ParseKeywords splits a delimited keyword string. A semicolon takes precedence
// over a comma, so "a, b; c" yields ["a, b", "c"].
func ParseKeywords(s string) []string {
	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Normalize lowercases and trims keywords, dropping empty ones.
func Normalize(keywords []string) []string {
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, lower.String(kw))
	}
	return out
}

// Filter returns the records whose search text contains any of the keywords.
// An empty keyword list matches nothing.
func Filter(records []paper.Record, keywords []string) []paper.Record {
	needles := Normalize(keywords)
	if len(needles) == 0 {
		return nil
	}

	lower := cases.Lower(language.Und)
	var matched []paper.Record
	for _, rec := range records {
		text := lower.String(rec.SearchText())
		for _, kw := range needles {
			if strings.Contains(text, kw) {
				matched = append(matched, rec)
				break
			}
		}
	}
	return matched
}
