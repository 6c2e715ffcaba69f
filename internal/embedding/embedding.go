// Package embedding converts complaint text into vectors through an external
// embedding model. Embeddings are advisory: callers branch on Result instead of
// treating an unavailable model as an error.
package embedding

import (
	"context"
	"errors"
)

// ErrDisabled is the reason reported when no embedding model is configured.
var ErrDisabled = errors.New("embedding model not configured")

// Result is either Embedded(vector) or Unavailable(reason).
type Result struct {
	vector []float64
	reason error
}

// Embedded wraps a successfully computed vector.
func Embedded(v []float64) Result {
	return Result{vector: v}
}

// Unavailable records why no vector could be produced.
func Unavailable(reason error) Result {
	if reason == nil {
		reason = errors.New("embedding unavailable")
	}
	return Result{reason: reason}
}

// Vector returns the embedding and true, or nil and false when unavailable.
func (r Result) Vector() ([]float64, bool) {
	if r.reason != nil || len(r.vector) == 0 {
		return nil, false
	}
	return r.vector, true
}

// Reason returns why the embedding is unavailable, or nil.
func (r Result) Reason() error {
	if r.reason == nil && len(r.vector) == 0 {
		return errors.New("empty embedding")
	}
	return r.reason
}

// Embedder converts text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) Result
}

// Disabled is used when no embedding model is configured.
type Disabled struct{}

// Embed always reports the model as unavailable.
func (Disabled) Embed(context.Context, string) Result {
	return Unavailable(ErrDisabled)
}
