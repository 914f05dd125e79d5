// Package corpus holds the labeled-utterance table backing the fuzzy
// fallback stage.  The table doubles as the expected-intent reference the
// evaluation logger compares classifier output against.
package corpus

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
)

// DefaultCutoff is the minimum similarity for an approximate match, on a
// 0..1 scale where 1 is an exact match.
const DefaultCutoff = 0.85

//go:embed data/utterances.yaml
var defaultData []byte

// schema validates the utterance data file shape at load time so a
// malformed edit fails startup instead of silently shrinking the table.
const schema = `{
	"type": "object",
	"required": ["utterances"],
	"properties": {
		"utterances": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["text", "intent"],
				"properties": {
					"text": {"type": "string", "minLength": 1},
					"intent": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var punctuation = regexp.MustCompile(`[^\w\s]`)

// Clean lower-cases text and strips punctuation, matching the form
// utterances are stored in.
func Clean(text string) string {
	return strings.TrimSpace(punctuation.ReplaceAllString(strings.ToLower(text), ""))
}

// Entry is one labeled utterance.
type Entry struct {
	Text   string `yaml:"text"`
	Intent string `yaml:"intent"`
}

type dataFile struct {
	Utterances []Entry `yaml:"utterances"`
}

// Corpus is an immutable utterance-to-intent table.  Safe for concurrent
// use.
type Corpus struct {
	byText map[string]intent.Intent
	texts  []string
	cutoff float64
}

// Load parses and validates the embedded default utterance set.
func Load() (*Corpus, error) {
	return Parse(defaultData, DefaultCutoff)
}

// Parse builds a Corpus from raw YAML.  The payload is schema-validated
// before entries are accepted; entries whose intent is outside the
// canonical vocabulary fail the load.
func Parse(data []byte, cutoff float64) (*Corpus, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse utterance yaml: %w", err)
	}
	compiled, err := jsonschema.CompileString("utterances.schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("compile utterance schema: %w", err)
	}
	if err := compiled.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid utterance data: %w", err)
	}

	var file dataFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse utterance yaml: %w", err)
	}

	c := &Corpus{
		byText: make(map[string]intent.Intent, len(file.Utterances)),
		cutoff: cutoff,
	}
	if c.cutoff <= 0 || c.cutoff > 1 {
		c.cutoff = DefaultCutoff
	}
	for _, e := range file.Utterances {
		label := intent.Intent(strings.TrimSpace(e.Intent))
		if !intent.IsCanonical(label) {
			return nil, fmt.Errorf("utterance %q labeled with unknown intent %q", e.Text, e.Intent)
		}
		text := Clean(e.Text)
		if text == "" {
			return nil, fmt.Errorf("utterance with empty text (intent %q)", e.Intent)
		}
		if _, ok := c.byText[text]; ok {
			continue
		}
		c.byText[text] = label
		c.texts = append(c.texts, text)
	}
	return c, nil
}

// Len reports the number of distinct utterances in the table.
func (c *Corpus) Len() int { return len(c.byText) }

// Lookup resolves text to an intent: exact match on the cleaned form
// first, then the nearest utterance by edit-distance similarity when it
// clears the cutoff.  The similarity of the winning match is returned;
// 1.0 for exact hits, 0 on a miss.
func (c *Corpus) Lookup(text string) (intent.Intent, float64, bool) {
	cleaned := Clean(text)
	if cleaned == "" {
		return intent.Unknown, 0, false
	}
	if label, ok := c.byText[cleaned]; ok {
		return label, 1.0, true
	}

	bestScore := 0.0
	bestText := ""
	for _, known := range c.texts {
		if s := similarity(cleaned, known); s > bestScore {
			bestScore = s
			bestText = known
		}
	}
	if bestScore >= c.cutoff {
		return c.byText[bestText], bestScore, true
	}
	return intent.Unknown, 0, false
}

// similarity maps edit distance onto 0..1, where 1 means identical.
func similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
