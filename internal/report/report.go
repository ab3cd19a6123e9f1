package report

import (
	"time"

	"lifecopilotAPI/internal/dailylog"
)

type Trigger string

const (
	// TriggerAuto: generation invoked from the log-creation path (or the
	// reconciler) for users entitled to automatic reports.
	TriggerAuto Trigger = "auto"
	// TriggerManual: generation requested explicitly by the client.
	TriggerManual Trigger = "manual"
)

type ConsistencyLevel string

const (
	ConsistencyLow    ConsistencyLevel = "low"
	ConsistencyMedium ConsistencyLevel = "medium"
	ConsistencyHigh   ConsistencyLevel = "high"
)

// ConsistencyFor buckets a completion score (0-60) into a level.
func ConsistencyFor(completionScore int) ConsistencyLevel {
	switch {
	case completionScore >= 50:
		return ConsistencyHigh
	case completionScore >= 30:
		return ConsistencyMedium
	default:
		return ConsistencyLow
	}
}

// ScoreBreakdown holds the weighted sub-scores of one cycle. Total is the
// 4-component weekly score (max 100); Energy is computed alongside for the
// insight payload but never folded into Total.
type ScoreBreakdown struct {
	Completion int `json:"completion"` // out of 60
	Effort     int `json:"effort"`     // out of 20
	Quality    int `json:"quality"`    // out of 10
	Difficulty int `json:"difficulty"` // out of 10
	Total      int `json:"total"`
}

type Breakdown struct {
	Completion int `json:"completion"`
	Effort     int `json:"effort"`
	Quality    int `json:"quality"`
	Difficulty int `json:"difficulty"`
}

// WeeklyReport is the immutable snapshot produced once per closed cycle,
// keyed by (userId, cycleStart).
type WeeklyReport struct {
	UserID           string           `json:"userId"`
	CycleStart       time.Time        `json:"cycleStart"`
	CycleEnd         time.Time        `json:"cycleEnd"`
	WeeklyScore      int              `json:"weeklyScore"`
	ConsistencyLevel ConsistencyLevel `json:"consistencyLevel"`
	Breakdown        Breakdown        `json:"breakdown"`
	AIInsights       []string         `json:"aiInsights"`
	Recommendation   string           `json:"recommendation"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// GenerateResult is the outcome of one generateReport call. Not-ready and
// not-entitled are normal results, not errors.
type GenerateResult struct {
	Success              bool          `json:"success"`
	WeeklyReport         *WeeklyReport `json:"weeklyReport"`
	RequiresSubscription bool          `json:"requiresSubscription"`
	Message              string        `json:"message,omitempty"`
}

// InsightPayload is what the remote insight endpoint receives. Field names
// match the mobile client's contract.
type InsightPayload struct {
	CycleLogs       []*dailylog.DailyLog `json:"cycleLogs"`
	WeeklyScore     int                  `json:"weeklyScore"`
	CompletionScore int                  `json:"completionScore"`
	EffortScore     int                  `json:"effortScore"`
	QualityScore    int                  `json:"qualityScore"`
	EnergyScore     int                  `json:"energyScore"`
	DifficultyScore int                  `json:"difficultyScore"`
}

type InsightResult struct {
	Insights       []string `json:"insights"`
	Recommendation string   `json:"recommendation"`
}
