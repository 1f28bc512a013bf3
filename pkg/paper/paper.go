package paper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	arxivAbsBase = "https://arxiv.org/abs/"
	arxivPDFBase = "https://arxiv.org/pdf/"

	// maxLineSize bounds a single JSONL line; enriched records with long abstracts
	// easily exceed bufio's 64 KiB default.
	maxLineSize = 16 * 1024 * 1024
)

// Annotation holds the AI-generated summary block attached to a record.
type Annotation struct {
	TLDR       string `json:"tldr,omitempty"`
	Motivation string `json:"motivation,omitempty"`
	Method     string `json:"method,omitempty"`
	Result     string `json:"result,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
}

// Record is one paper of the dataset. Records are never modified after Load.
type Record struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Summary    string      `json:"summary"`
	Authors    []string    `json:"authors,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	Abs        string      `json:"abs,omitempty"`
	PDF        string      `json:"pdf,omitempty"`
	AI         *Annotation `json:"AI,omitempty"`
}

// Annotation returns the AI block, or an empty one when the record has none.
func (r Record) Annotation() Annotation {
	if r.AI == nil {
		return Annotation{}
	}
	return *r.AI
}

// AbstractURL returns the abstract page, derived from the ID when missing.
func (r Record) AbstractURL() string {
	if r.Abs != "" {
		return r.Abs
	}
	return arxivAbsBase + r.ID
}

// PDFURL returns the PDF link, derived from the ID when missing.
func (r Record) PDFURL() string {
	if r.PDF != "" {
		return r.PDF
	}
	return arxivPDFBase + r.ID
}

// SearchText concatenates the fields keyword matching runs against:
// title, summary and the tldr, motivation, method and result annotations.
func (r Record) SearchText() string {
	ai := r.Annotation()
	return strings.Join([]string{
		r.Title,
		r.Summary,
		ai.TLDR,
		ai.Motivation,
		ai.Method,
		ai.Result,
	}, " ")
}

// Load reads a JSONL dataset. Blank lines are skipped; any malformed line fails
// the whole load.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parsing dataset %s line %d: %w", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return records, nil
}
