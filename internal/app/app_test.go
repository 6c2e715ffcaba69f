package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grievance/backend/internal/app"
	"grievance/backend/internal/config"
	"grievance/backend/internal/eventhub"
	"grievance/backend/internal/grievance"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "dev", Origin: "*"},
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Duplicate: config.DuplicateConfig{Threshold: config.DefaultDuplicateThreshold, Window: config.DefaultDuplicateWindow},
		SLA:       config.SLAConfig{Schedule: config.DefaultSweepSchedule, LockTTL: config.DefaultSweepLockTTL},
		Embedding: config.EmbeddingConfig{Timeout: config.DefaultEmbedTimeout},
	}
}

type recordingClient struct {
	viewer eventhub.Viewer
	recv   chan models.Event
}

func (c *recordingClient) GetViewer() eventhub.Viewer          { return c.viewer }
func (c *recordingClient) GetSendChannel() chan<- models.Event { return c.recv }
func (c *recordingClient) Run()                                {}
func (c *recordingClient) Close()                              {}

func TestNew_WithoutRedis(t *testing.T) {
	mem := storage.NewMemory()
	a, err := app.New(testConfig(), app.Options{Store: mem}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a.Bot)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	admin := &recordingClient{viewer: eventhub.Viewer{UserID: "a", Role: models.RoleAdmin}, recv: make(chan models.Event, 4)}
	require.NoError(t, a.Hub.Register(admin))
	_, err = a.Grievances.Submit(ctx, grievance.SubmitInput{Title: "Pothole", Description: "deep pothole on main road", CitizenID: "c1"})
	require.NoError(t, err)

	select {
	case e := <-admin.recv:
		assert.Equal(t, models.EventSubmitted, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event did not reach the hub")
	}

	cancel()
	a.Stop()
}

func TestNew_WithRedisEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mem := storage.NewMemory()
	a, err := app.New(testConfig(), app.Options{Store: mem, Redis: rdb}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))

	admin := &recordingClient{viewer: eventhub.Viewer{UserID: "a", Role: models.RoleAdmin}, recv: make(chan models.Event, 4)}
	require.NoError(t, a.Hub.Register(admin))
	_, err = a.Grievances.Submit(ctx, grievance.SubmitInput{Title: "Pothole", Description: "deep pothole on main road", CitizenID: "c1"})
	require.NoError(t, err)

	select {
	case e := <-admin.recv:
		assert.Equal(t, models.EventSubmitted, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event did not travel through redis")
	}

	cancel()
	a.Stop()
}

func TestOpenRedis_Optional(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, app.OpenRedis(context.Background(), cfg, zap.NewNop()))

	cfg.Redis.Address = "127.0.0.1:1"
	assert.Nil(t, app.OpenRedis(context.Background(), cfg, zap.NewNop()))

	mr := miniredis.RunT(t)
	cfg.Redis.Address = mr.Addr()
	rdb := app.OpenRedis(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, rdb)
	_ = rdb.Close()
}
