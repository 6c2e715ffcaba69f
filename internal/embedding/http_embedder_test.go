package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSidecar(t *testing.T, healthy *atomic.Bool, healthCalls *atomic.Int32, vector []float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCalls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", ModelVersion: "minilm-v2", Dimensions: len(vector)})
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{vector}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEmbedder_Embed(t *testing.T) {
	var healthy atomic.Bool
	var healthCalls atomic.Int32
	healthy.Store(true)
	srv := newSidecar(t, &healthy, &healthCalls, []float64{0.1, 0.2, 0.3})

	e := NewHTTPEmbedder(srv.URL, nil)

	res := e.Embed(context.Background(), "garbage on the street")
	vec, ok := res.Vector()
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.NoError(t, res.Reason())
	assert.Equal(t, "minilm-v2", e.ModelVersion())

	// The model is loaded once.
	e.Embed(context.Background(), "again")
	assert.Equal(t, int32(1), healthCalls.Load())
}

func TestHTTPEmbedder_RetriesLoadAfterFailure(t *testing.T) {
	var healthy atomic.Bool
	var healthCalls atomic.Int32
	srv := newSidecar(t, &healthy, &healthCalls, []float64{1, 0})

	e := NewHTTPEmbedder(srv.URL, nil)

	res := e.Embed(context.Background(), "text")
	_, ok := res.Vector()
	assert.False(t, ok)
	assert.ErrorIs(t, res.Reason(), ErrModelNotLoaded)

	healthy.Store(true)
	res = e.Embed(context.Background(), "text")
	_, ok = res.Vector()
	assert.True(t, ok)
	assert.Equal(t, int32(2), healthCalls.Load())
}

func TestHTTPEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewHTTPEmbedder(url, nil).Embed(context.Background(), "text")
	_, ok := res.Vector()
	assert.False(t, ok)
	assert.Error(t, res.Reason())
}

func TestHTTPEmbedder_EmptyVector(t *testing.T) {
	var healthy atomic.Bool
	var healthCalls atomic.Int32
	healthy.Store(true)
	srv := newSidecar(t, &healthy, &healthCalls, []float64{})

	res := NewHTTPEmbedder(srv.URL, nil).Embed(context.Background(), "text")
	_, ok := res.Vector()
	assert.False(t, ok)
}

func TestDisabled(t *testing.T) {
	res := Disabled{}.Embed(context.Background(), "anything")
	_, ok := res.Vector()
	assert.False(t, ok)
	assert.ErrorIs(t, res.Reason(), ErrDisabled)
}

func TestResult(t *testing.T) {
	vec, ok := Embedded([]float64{1}).Vector()
	assert.True(t, ok)
	assert.Equal(t, []float64{1}, vec)

	assert.Error(t, Unavailable(nil).Reason())
}
