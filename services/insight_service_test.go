package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecopilotAPI/internal/report"
)

func testPayload() *report.InsightPayload {
	return &report.InsightPayload{
		WeeklyScore:     72,
		CompletionScore: 43,
		EffortScore:     14,
		QualityScore:    8,
		EnergyScore:     6,
		DifficultyScore: 7,
	}
}

func TestRemoteInsightService(t *testing.T) {
	t.Run("parses a successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload report.InsightPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, 72, payload.WeeklyScore)

			json.NewEncoder(w).Encode(map[string]any{
				"success":        true,
				"insights":       []string{"You kept momentum all week.", "Effort tracking is paying off."},
				"recommendation": "Raise difficulty on two tasks next cycle.",
			})
		}))
		defer server.Close()

		svc := NewRemoteInsightService(server.URL)
		res, err := svc.GenerateInsights(context.Background(), testPayload())
		require.NoError(t, err)
		assert.Len(t, res.Insights, 2)
		assert.Equal(t, "Raise difficulty on two tasks next cycle.", res.Recommendation)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewRemoteInsightService(server.URL)
		_, err := svc.GenerateInsights(context.Background(), testPayload())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("success=false is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "model overloaded",
			})
		}))
		defer server.Close()

		svc := NewRemoteInsightService(server.URL)
		_, err := svc.GenerateInsights(context.Background(), testPayload())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "model overloaded")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		svc := NewRemoteInsightService(server.URL)
		_, err := svc.GenerateInsights(context.Background(), testPayload())
		assert.Error(t, err)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		started := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		svc := NewRemoteInsightService(server.URL)
		_, err := svc.GenerateInsights(ctx, testPayload())
		assert.Error(t, err)
	})
}
