package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/users/writer-1/stats", r.URL.Path)

		last := "2026-03-09"
		writeJSON(w, http.StatusOK, APIResponse[UserStatsDTO]{
			Success: true,
			Data: UserStatsDTO{
				WordCount:      12500,
				WordCountToday: 430,
				WriteStreak:    6,
				Experience:     350,
				Level:          3,
				LastActiveDate: &last,
			},
		})
	}))

	got, err := client.GetStats(context.Background(), "writer-1")
	require.NoError(t, err)

	assert.Equal(t, 12500, got.WordCount)
	assert.Equal(t, 430, got.WordCountToday)
	assert.Equal(t, 6, got.WriteStreak)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, "2026-03-09", got.LastActiveDate.Format("2006-01-02"))
}

func TestClient_GetStats_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetStats(context.Background(), "nobody")
	assert.True(t, shared.IsNotFound(err))
}

func TestClient_GetStats_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, APIResponse[UserStatsDTO]{
			Success: true,
			Data:    UserStatsDTO{WordCount: 7},
		})
	}))

	got, err := client.GetStats(context.Background(), "writer-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.WordCount)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_IncrementStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/writer-1/stats/increment", r.URL.Path)

		var delta StatsDeltaDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&delta))
		assert.Equal(t, 80, delta.WordsWritten)
		assert.Equal(t, 1, delta.PlacesCreated)

		writeJSON(w, http.StatusOK, APIResponse[UserStatsDTO]{
			Success: true,
			Data:    UserStatsDTO{WordCount: 80, PlaceCount: 1},
		})
	}))

	got, err := client.IncrementStats(context.Background(), "writer-1", stats.Delta{
		WordsWritten:  80,
		PlacesCreated: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, got.WordCount)
	assert.Equal(t, 1, got.PlaceCount)
}

func TestClient_IncrementStats_NoRetryOnFailure(t *testing.T) {
	// Writes must not be retried by the client: the sync buffer owns
	// redelivery, and a transport-level retry could double-count.
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.IncrementStats(context.Background(), "writer-1", stats.Delta{WordsWritten: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PutStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var patch StatsPatchDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.NotNil(t, patch.DailyWordGoal)
		assert.Equal(t, 500, *patch.DailyWordGoal)
		assert.Nil(t, patch.WriteStreak, "untouched fields stay absent")

		writeJSON(w, http.StatusOK, APIResponse[UserStatsDTO]{
			Success: true,
			Data:    UserStatsDTO{DailyWordGoal: 500},
		})
	}))

	got, err := client.PutStats(context.Background(), "writer-1", stats.StatsPatch{
		DailyWordGoal: stats.Int(500),
	})
	require.NoError(t, err)
	assert.Equal(t, 500, got.DailyWordGoal)
}

func TestClient_CreateWritingSession(t *testing.T) {
	end := time.Date(2026, 3, 10, 11, 2, 0, 0, time.UTC)
	start := end.Add(-32 * time.Minute)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/writer-1/sessions", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))

		var dto WritingSessionDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		assert.Equal(t, "sess-1", dto.ID)
		assert.Equal(t, "2026-03-10", dto.Date)
		assert.Equal(t, 960, dto.WordCount)
		assert.Equal(t, 32, dto.Duration)

		writeJSON(w, http.StatusOK, APIResponse[UserStatsDTO]{
			Success: true,
			Data:    UserStatsDTO{SessionsCompleted: 4, WriteTime: 128},
		})
	}))

	got, err := client.CreateWritingSession(context.Background(), "writer-1", session.WritingSession{
		ID:        "sess-1",
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		WordCount: 960,
		Duration:  32,
		StartTime: start,
		EndTime:   &end,
	}, "key-123")
	require.NoError(t, err)
	assert.Equal(t, 4, got.SessionsCompleted)
	assert.Equal(t, 128, got.WriteTime)
}

func TestClient_APIErrorPayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, APIErrorDTO{
			Code:    "INVALID_DELTA",
			Message: "negative counter",
		})
	}))

	_, err := client.IncrementStats(context.Background(), "writer-1", stats.Delta{WordsWritten: 1})
	require.Error(t, err)

	var apiErr *APIErrorDTO
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_DELTA", apiErr.Code)
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	}))

	_, err := client.PutStats(context.Background(), "writer-1", stats.StatsPatch{
		DailyWordGoal: stats.Int(100),
	})
	assert.ErrorIs(t, err, shared.ErrRemoteBadResponse)
}
