package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/internal/report"
	"lifecopilotAPI/utils"
)

type stubInsightProvider struct {
	result *report.InsightResult
	err    error
	calls  int
}

func (p *stubInsightProvider) GenerateInsights(ctx context.Context, payload *report.InsightPayload) (*report.InsightResult, error) {
	p.calls++
	return p.result, p.err
}

func completedCycle() []*dailylog.DailyLog {
	outcome := dailylog.OutcomeCompleted
	quality := 4
	logs := make([]*dailylog.DailyLog, 7)
	for i := range logs {
		actual := 3600
		logs[i] = &dailylog.DailyLog{
			Date:              fmt.Sprintf("2025-02-0%d", i+1),
			Intention:         "deep work block",
			PlannedDuration:   3600,
			ActualDuration:    &actual,
			Outcome:           &outcome,
			CompletionQuality: &quality,
		}
	}
	return logs
}

func TestResolveInsights(t *testing.T) {
	logs := completedCycle()
	breakdown := utils.CalculateScores(logs)
	claim := &claimedCycle{clerkID: "user_test", logs: logs}

	t.Run("uses the remote result when the provider succeeds", func(t *testing.T) {
		provider := &stubInsightProvider{
			result: &report.InsightResult{
				Insights:       []string{"Remote insight one", "Remote insight two"},
				Recommendation: "Remote recommendation",
			},
		}
		s := &ReportService{insights: provider}

		insights, recommendation := s.resolveInsights(context.Background(), claim, breakdown)
		assert.Equal(t, provider.result.Insights, insights)
		assert.Equal(t, "Remote recommendation", recommendation)
		assert.Equal(t, 1, provider.calls)
	})

	t.Run("truncates remote insights to four", func(t *testing.T) {
		provider := &stubInsightProvider{
			result: &report.InsightResult{
				Insights:       []string{"one", "two", "three", "four", "five", "six"},
				Recommendation: "keep going",
			},
		}
		s := &ReportService{insights: provider}

		insights, _ := s.resolveInsights(context.Background(), claim, breakdown)
		assert.Len(t, insights, 4)
	})

	t.Run("falls back when the provider errors", func(t *testing.T) {
		provider := &stubInsightProvider{err: fmt.Errorf("upstream unavailable")}
		s := &ReportService{insights: provider}

		insights, recommendation := s.resolveInsights(context.Background(), claim, breakdown)
		assert.Equal(t, utils.GenerateInsights(logs, breakdown), insights)
		assert.Equal(t, utils.GenerateRecommendation(breakdown), recommendation)
	})

	t.Run("falls back on a malformed remote result", func(t *testing.T) {
		provider := &stubInsightProvider{
			result: &report.InsightResult{Insights: []string{"only insights, no recommendation"}},
		}
		s := &ReportService{insights: provider}

		insights, recommendation := s.resolveInsights(context.Background(), claim, breakdown)
		assert.Equal(t, utils.GenerateInsights(logs, breakdown), insights)
		assert.NotEmpty(t, recommendation)
	})

	t.Run("skips the provider entirely when none is configured", func(t *testing.T) {
		s := &ReportService{}

		insights, recommendation := s.resolveInsights(context.Background(), claim, breakdown)
		assert.Equal(t, utils.GenerateInsights(logs, breakdown), insights)
		assert.Equal(t, utils.GenerateRecommendation(breakdown), recommendation)
	})
}

func TestConsistencyAssignedFromCompletion(t *testing.T) {
	assert.Equal(t, report.ConsistencyHigh, report.ConsistencyFor(55))
	assert.Equal(t, report.ConsistencyMedium, report.ConsistencyFor(34))
	assert.Equal(t, report.ConsistencyLow, report.ConsistencyFor(12))
}
