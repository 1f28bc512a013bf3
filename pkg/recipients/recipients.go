package recipients

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/telekom/paper-digest/pkg/filter"
)

var (
	ErrMalformedConfig = errors.New("malformed recipients config")
	ErrNoRecipients    = errors.New("no recipients configured")
)

// Source names where the recipient list was taken from.
type Source string

const (
	SourceNone   Source = ""
	SourceFile   Source = "file"
	SourceInline Source = "inline"
	SourceEnv    Source = "env"
	SourceLegacy Source = "legacy"
)

// Spec is one recipient and the keywords their digest is filtered by.
type Spec struct {
	Email    string   `json:"email"`
	Keywords Keywords `json:"keywords"`
}

// Keywords accepts either a delimited string or an array of strings in JSON.
type Keywords []string

func (k *Keywords) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = filter.ParseKeywords(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("keywords must be a string or an array of strings: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*k = out
	return nil
}

// Sources holds the raw inputs recipients can be resolved from.
type Sources struct {
	// ConfigArg is a path to a JSON file or an inline JSON document.
	ConfigArg string
	// EnvConfig is the inline JSON document from the environment.
	EnvConfig string
	// LegacyEmail and LegacyKeywords describe a single recipient.
	LegacyEmail    string
	LegacyKeywords []string
}

// Resolve returns the recipients of the first source that is set. Later
// sources are ignored even when they are set too.
func Resolve(src Sources, log *zap.SugaredLogger) ([]Spec, Source, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var (
		specs  []Spec
		source Source
		err    error
	)
	switch {
	case strings.TrimSpace(src.ConfigArg) != "":
		specs, source, err = fromConfigArg(strings.TrimSpace(src.ConfigArg))
	case strings.TrimSpace(src.EnvConfig) != "":
		source = SourceEnv
		specs, err = Parse([]byte(src.EnvConfig))
	case strings.TrimSpace(src.LegacyEmail) != "":
		source = SourceLegacy
		specs = []Spec{{
			Email:    strings.TrimSpace(src.LegacyEmail),
			Keywords: legacyKeywords(src.LegacyKeywords),
		}}
	default:
		return nil, SourceNone, ErrNoRecipients
	}
	if err != nil {
		return nil, source, err
	}

	valid := make([]Spec, 0, len(specs))
	for i, spec := range specs {
		spec.Email = strings.TrimSpace(spec.Email)
		if spec.Email == "" {
			log.Warnw("Skipping recipient without email", "index", i, "source", source)
			continue
		}
		if len(spec.Keywords) == 0 {
			log.Warnw("Recipient has no keywords, digest will be empty", "email", spec.Email)
		}
		valid = append(valid, spec)
	}
	if len(valid) == 0 {
		return nil, source, ErrNoRecipients
	}

	log.Infow("Resolved recipients", "source", source, "count", len(valid))
	return valid, source, nil
}

// Parse decodes a recipients JSON document.
func Parse(data []byte) ([]Spec, error) {
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	return specs, nil
}

func fromConfigArg(arg string) ([]Spec, Source, error) {
	info, err := os.Stat(arg)
	if err == nil && !info.IsDir() {
		content, err := os.ReadFile(arg)
		if err != nil {
			return nil, SourceFile, fmt.Errorf("reading recipients config %s: %w", arg, err)
		}
		specs, err := Parse(content)
		if err != nil {
			return nil, SourceFile, fmt.Errorf("recipients config %s: %w", arg, err)
		}
		return specs, SourceFile, nil
	}
	specs, err := Parse([]byte(arg))
	return specs, SourceInline, err
}

func legacyKeywords(values []string) Keywords {
	var out Keywords
	for _, v := range values {
		out = append(out, filter.ParseKeywords(v)...)
	}
	return out
}
