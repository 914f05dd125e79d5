// Package trivia holds the question bank and the answer-scoring rules
// for the trivia game flow.
package trivia

import (
	_ "embed"
	"fmt"
	"math/rand"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed data/questions.yaml
var defaultData []byte

// schema rejects malformed bank edits at startup: every question needs a
// prompt, at least two options, and an answer.
const schema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "options", "answer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {
						"type": "array",
						"minItems": 2,
						"items": {"type": "string", "minLength": 1}
					},
					"answer": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// Question is one bank entry.  Options keep file order; letters A, B,
// C, ... are assigned by index when the question is presented.
type Question struct {
	Prompt  string   `yaml:"question"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

// CorrectIndex returns the option index holding the answer, or -1 when
// the answer is free-form and not among the options.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(q.Answer)) {
			return i
		}
	}
	return -1
}

// Format renders the question with lettered options for voice or text
// output.
func (q Question) Format() string {
	var b strings.Builder
	b.WriteString(q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%c. %s", 'A'+i, opt)
	}
	return b.String()
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// Bank is an immutable set of trivia questions.  Safe for concurrent use
// when the rand source given to Pick is.
type Bank struct {
	questions []Question
}

// Load parses and validates the embedded default question bank.
func Load() (*Bank, error) {
	return Parse(defaultData)
}

// Parse builds a Bank from raw YAML, schema-validating the payload
// first.
func Parse(data []byte) (*Bank, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse trivia yaml: %w", err)
	}
	compiled, err := jsonschema.CompileString("questions.schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("compile trivia schema: %w", err)
	}
	if err := compiled.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid trivia data: %w", err)
	}

	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse trivia yaml: %w", err)
	}
	return &Bank{questions: file.Questions}, nil
}

// Len reports the number of questions in the bank.
func (b *Bank) Len() int { return len(b.questions) }

// Pick selects one question uniformly at random.
func (b *Bank) Pick(rng *rand.Rand) (Question, bool) {
	if len(b.questions) == 0 {
		return Question{}, false
	}
	return b.questions[rng.Intn(len(b.questions))], true
}

// At returns the question at index i, for deterministic tests.
func (b *Bank) At(i int) Question { return b.questions[i] }

// Score checks a spoken or typed answer against a question.
//
// Two forms are accepted: the literal answer text (case-insensitive
// equality or substring of the input) and a single-letter option
// reference ("b", "B.", "option b"), matched as an exact compact token
// against the letters assigned by option order.  A bare letter naming a
// wrong option scores incorrect even when the rest of the input is
// empty; the question is not retried either way.
func Score(q Question, input string) bool {
	given := strings.ToLower(strings.TrimSpace(input))
	correct := strings.ToLower(strings.TrimSpace(q.Answer))
	if given == "" {
		return false
	}
	if given == correct {
		return true
	}

	if idx := guessedOption(q, given); idx >= 0 {
		if strings.EqualFold(strings.TrimSpace(q.Options[idx]), strings.TrimSpace(q.Answer)) {
			return true
		}
	}

	return strings.Contains(given, correct)
}

// guessedOption scans the input for a letter token referencing an
// option, returning its index or -1.
func guessedOption(q Question, given string) int {
	for i := range q.Options {
		letter := strings.ToLower(string(rune('A' + i)))
		if given == letter ||
			strings.Contains(given, letter+".") ||
			strings.Contains(given, letter+" ") {
			return i
		}
	}
	return -1
}
