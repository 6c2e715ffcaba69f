package duplicate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}

	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-12)
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
	assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity([]float64{2, 4, 6}, b), 1e-12, "scale invariant")
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 1}, []float64{-1, -1}), 1e-12)

	s := CosineSimilarity(a, b)
	assert.True(t, s >= -1 && s <= 1)
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float64{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{1, 0, 5}), "length mismatch")
}

// vectorWithScore returns a unit vector whose cosine with (1, 0) is score.
func vectorWithScore(score float64) []float64 {
	return []float64{score, math.Sqrt(1 - score*score)}
}

func seed(t *testing.T, store *storage.Memory, title string, kind models.Kind, emb []float64, at time.Time) *models.Grievance {
	t.Helper()
	g := &models.Grievance{Title: title, CitizenID: "c1", Status: models.StatusSubmitted, Kind: kind, Embedding: emb, CreatedAt: at}
	require.NoError(t, store.CreateGrievance(context.Background(), g))
	return g
}

func TestDetector_Threshold(t *testing.T) {
	base := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		score float64
		want  bool
	}{
		{"just below", 0.8599, false},
		{"clearly similar", 0.95, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			seed(t, store, "candidate", models.KindOriginal, vectorWithScore(tt.score), base)

			match, err := NewDetector(store).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)

			require.NoError(t, err)
			assert.Equal(t, tt.want, match != nil)
		})
	}
}

func TestDetector_ScoreEqualToThresholdIsDuplicate(t *testing.T) {
	store := storage.NewMemory()
	candidate := vectorWithScore(0.86)
	seed(t, store, "candidate", models.KindOriginal, candidate, time.Now().Add(-time.Hour))
	query := []float64{1, 0}
	threshold := CosineSimilarity(query, candidate)

	match, err := NewDetector(store).FindDuplicate(context.Background(), query, threshold)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, threshold, match.Score)
}

func TestDetector_PicksHighestScore(t *testing.T) {
	store := storage.NewMemory()
	base := time.Now().Add(-time.Hour)
	seed(t, store, "close", models.KindOriginal, vectorWithScore(0.9), base)
	best := seed(t, store, "closest", models.KindOriginal, vectorWithScore(0.99), base.Add(time.Minute))
	seed(t, store, "no embedding", models.KindOriginal, nil, base.Add(2*time.Minute))

	match, err := NewDetector(store).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, best.ID, match.Grievance.ID)
	assert.InDelta(t, 0.99, match.Score, 1e-9)
}

func TestDetector_Window(t *testing.T) {
	store := storage.NewMemory()
	base := time.Now().Add(-time.Hour)
	seed(t, store, "old twin", models.KindOriginal, []float64{1, 0}, base)
	seed(t, store, "recent", models.KindOriginal, []float64{0, 1}, base.Add(time.Minute))

	match, err := NewDetector(store, WithWindow(1)).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)

	require.NoError(t, err)
	assert.Nil(t, match, "the twin is outside the window")
}

func TestDetector_FlaggedCandidates(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "flagged", models.KindDuplicate, []float64{1, 0}, time.Now().Add(-time.Hour))

	match, err := NewDetector(store).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)
	require.NoError(t, err)
	assert.Nil(t, match)

	match, err = NewDetector(store, WithFlagged(true)).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)
	require.NoError(t, err)
	assert.NotNil(t, match)
}

func TestDetector_EmptyEmbedding(t *testing.T) {
	match, err := NewDetector(storage.NewMemory()).FindDuplicate(context.Background(), nil, 0.86)
	assert.NoError(t, err)
	assert.Nil(t, match)
}

type failingStore struct{ storage.GrievanceStore }

func (failingStore) FindGrievances(context.Context, storage.GrievanceFilter) ([]models.Grievance, error) {
	return nil, errors.New("connection reset")
}

func TestDetector_StoreFailure(t *testing.T) {
	_, err := NewDetector(failingStore{}).FindDuplicate(context.Background(), []float64{1, 0}, 0.86)
	assert.Error(t, err)
}
