package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lifecopilotAPI/internal/report"
)

// RemoteInsightService calls the hosted insight-generation endpoint. It
// satisfies InsightProvider; errors returned here never reach the client
// because the report pipeline falls back to the deterministic generator.
type RemoteInsightService struct {
	endpoint   string
	httpClient *http.Client
}

func NewRemoteInsightService(endpoint string) *RemoteInsightService {
	return &RemoteInsightService{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type remoteInsightResponse struct {
	Success        bool     `json:"success"`
	Insights       []string `json:"insights"`
	Recommendation string   `json:"recommendation"`
	Error          string   `json:"error,omitempty"`
}

func (s *RemoteInsightService) GenerateInsights(ctx context.Context, payload *report.InsightPayload) (*report.InsightResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insight request failed: status %d", resp.StatusCode)
	}

	var decoded remoteInsightResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode insight response: %w", err)
	}

	if !decoded.Success {
		if decoded.Error != "" {
			return nil, fmt.Errorf("insight service error: %s", decoded.Error)
		}
		return nil, fmt.Errorf("insight service reported failure")
	}

	return &report.InsightResult{
		Insights:       decoded.Insights,
		Recommendation: decoded.Recommendation,
	}, nil
}
