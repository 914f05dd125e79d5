// Package engines holds the thin HTTP clients behind the content
// intents: weather, news headlines, factual answers, calorie lookups,
// and recipes.  Every client degrades to ErrUnavailable on upstream
// trouble so the caller can apologize instead of failing the turn.
package engines

import (
	"errors"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable means the upstream service could not produce an answer.
var ErrUnavailable = errors.New("engines: upstream unavailable")

// defaultTimeout matches the per-request budget used across clients.
const defaultTimeout = 8 * time.Second

// maxBodySize caps how much of an upstream response body is read.
const maxBodySize = 1 << 20

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}
