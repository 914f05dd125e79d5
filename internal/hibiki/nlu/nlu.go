// Package nlu provides the classification layer between a raw utterance
// and the intent resolver.
//
// The classifier is an external collaborator with its own failure modes;
// everything it returns is advisory.  A failed or low-confidence
// classification is not an error for the turn — the fallback cascade
// takes over — so callers degrade a Classify error to an empty Result
// rather than aborting.
package nlu

import (
	"context"
	"errors"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
)

// ErrUnavailable is returned by a Classifier when the upstream service
// cannot be reached or answers with a server error.  The turn continues
// through the fallback cascade.
var ErrUnavailable = errors.New("nlu: classifier unavailable")

// Result is one classification outcome.  Label is the raw classifier
// label, not yet normalized; an empty Label with zero Confidence means
// "no intent detected".
type Result struct {
	Label      string
	Confidence float64
	Entities   entity.Bag
}

// Classifier turns an utterance into a labeled intent with entities.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// None is the empty result used when classification fails or is skipped.
var None = Result{}
