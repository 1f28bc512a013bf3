package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/microcosm-cc/bluemonday"

	"github.com/telekom/paper-digest/pkg/paper"
)

// PlainTextFallback is the text/plain alternative of every digest.
const PlainTextFallback = "Please view this email in an HTML-capable email client."

// Params is the input of Render.
type Params struct {
	Date     string
	Keywords []string
	Papers   []paper.Record
}

type sectionParams struct {
	Heading string
	Text    string
}

func newSection(heading, text string) sectionParams {
	return sectionParams{Heading: heading, Text: text}
}

var (
	digestTemplate = template.New("digest")
	stripPolicy    = bluemonday.StrictPolicy()

	//go:embed templates/digest.html
	digestTemplateRaw string
)

func init() {
	digestTemplate.Funcs(sprig.FuncMap()).Funcs(template.FuncMap{
		"clean":   clean,
		"section": newSection,
	})
	if _, err := digestTemplate.Parse(digestTemplateRaw); err != nil {
		panic(err)
	}
}

// markupTag matches the start of an HTML element that shows up in scraped
// abstracts. Any other "<" is text, such as "$k<n$".
var markupTag = regexp.MustCompile(`^</?(?i:a|b|br|code|div|em|font|i|img|li|ol|p|pre|script|span|strong|style|sub|sup|table|td|tr|tt|u|ul)\b`)

// clean strips markup that sometimes leaks into abstracts and annotations. The
// result is plain text; escaping is left to the template.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !markupTag.MatchString(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(b.String())))
}

// Render produces the complete HTML document for one recipient.
func Render(p Params) (string, error) {
	b := bytes.Buffer{}
	if err := digestTemplate.Execute(&b, p); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return b.String(), nil
}

// Subject returns the mail subject for a digest of count papers.
func Subject(count int, date string) string {
	noun := "papers"
	if count == 1 {
		noun = "paper"
	}
	return fmt.Sprintf("Daily arXiv Digest: %d %s (%s)", count, noun, date)
}
