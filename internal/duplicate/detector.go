// Package duplicate flags new complaints that are semantically close to recent ones.
package duplicate

import (
	"context"
	"fmt"
	"math"

	"grievance/backend/internal/config"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

// CosineSimilarity returns dot(a,b)/(|a||b|). Vectors of different length or with
// zero magnitude are not comparable and score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Match is the best scoring candidate at or above the threshold.
type Match struct {
	Grievance models.Grievance
	Score     float64
}

// Detector scans the most recent embedded grievances for a near match.
type Detector struct {
	store  storage.GrievanceStore
	window int
	// includeFlagged lets records already flagged as duplicates act as candidates.
	includeFlagged bool
}

type Option func(*Detector)

// WithWindow sets how many recent embedded grievances are scanned.
func WithWindow(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.window = n
		}
	}
}

// WithFlagged makes duplicate records eligible as candidates.
func WithFlagged(include bool) Option {
	return func(d *Detector) { d.includeFlagged = include }
}

func NewDetector(store storage.GrievanceStore, opts ...Option) *Detector {
	d := &Detector{store: store, window: config.DefaultDuplicateWindow}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FindDuplicate returns the highest scoring candidate when its score is at least
// threshold, or nil. A store read failure is returned so the caller can fall back.
func (d *Detector) FindDuplicate(ctx context.Context, embedding []float64, threshold float64) (*Match, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	filter := storage.GrievanceFilter{WithEmbedding: true, Limit: d.window}
	if !d.includeFlagged {
		filter.Kinds = []models.Kind{models.KindOriginal}
	}
	candidates, err := d.store.FindGrievances(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load duplicate candidates: %w", err)
	}

	var best *Match
	for i := range candidates {
		score := CosineSimilarity(embedding, candidates[i].Embedding)
		if best == nil || score > best.Score {
			best = &Match{Grievance: candidates[i], Score: score}
		}
	}
	if best == nil || best.Score < threshold {
		return nil, nil
	}
	return best, nil
}
