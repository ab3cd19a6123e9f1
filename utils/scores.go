package utils

import (
	"math"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/internal/report"
)

// CalculateCompletionScore maps outcomes (completed=1.0, partial=0.5,
// missed or unresolved=0) to a 0-60 score. The average always divides by
// min(len, 7) so a short cycle cannot inflate the score.
func CalculateCompletionScore(logs []*dailylog.DailyLog) int {
	if len(logs) == 0 {
		return 0
	}

	total := 0.0
	for _, log := range logs {
		if log.Outcome == nil {
			continue
		}
		switch *log.Outcome {
		case dailylog.OutcomeCompleted:
			total += 1.0
		case dailylog.OutcomePartial:
			total += 0.5
		}
	}

	denom := len(logs)
	if denom > cycle.Size {
		denom = cycle.Size
	}

	return int(math.Round(total / float64(denom) * 60))
}

// CalculateEffortScore rates estimation accuracy 0-20. Only logs that have
// an actual duration recorded participate; missing data is excluded, not
// penalized.
func CalculateEffortScore(logs []*dailylog.DailyLog) int {
	total := 0.0
	counted := 0

	for _, log := range logs {
		if log.ActualDuration == nil {
			continue
		}
		total += durationAccuracy(log.PlannedDuration, *log.ActualDuration)
		counted++
	}

	if counted == 0 {
		return 0
	}

	return int(math.Round(total / float64(counted) * 20))
}

func durationAccuracy(planned, actual int) float64 {
	if planned == 0 {
		return 1.0
	}

	ratio := float64(actual) / float64(planned)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 1.0
	case ratio >= 0.6 && ratio <= 1.5:
		return 0.7
	default:
		return 0.3
	}
}

// CalculateQualityScore averages completionQuality (1-5) over the logs
// where it is set and scales to 0-10.
func CalculateQualityScore(logs []*dailylog.DailyLog) int {
	total := 0
	counted := 0

	for _, log := range logs {
		if log.CompletionQuality == nil {
			continue
		}
		total += *log.CompletionQuality
		counted++
	}

	if counted == 0 {
		return 0
	}

	avg := float64(total) / float64(counted)
	return int(math.Round(avg / 5 * 10))
}

// CalculateDifficultyScore starts from a baseline of 5, rewards completed
// hard and medium tasks (+2 / +1), penalizes missed easy ones (-2), and
// clamps to [0,10].
func CalculateDifficultyScore(logs []*dailylog.DailyLog) int {
	score := 5

	for _, log := range logs {
		if log.Difficulty == nil || log.Outcome == nil {
			continue
		}
		switch {
		case *log.Difficulty == dailylog.DifficultyHard && *log.Outcome == dailylog.OutcomeCompleted:
			score += 2
		case *log.Difficulty == dailylog.DifficultyMedium && *log.Outcome == dailylog.OutcomeCompleted:
			score += 1
		case *log.Difficulty == dailylog.DifficultyEasy && *log.Outcome == dailylog.OutcomeMissed:
			score -= 2
		}
	}

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// CalculateEnergyScore maps energy (low=0, medium=5, high=10) averaged
// over the full cycle size. It feeds the insight payload only and is not
// part of the stored weekly total.
func CalculateEnergyScore(logs []*dailylog.DailyLog) int {
	total := 0
	for _, log := range logs {
		if log.Energy == nil {
			continue
		}
		switch *log.Energy {
		case dailylog.EnergyMedium:
			total += 5
		case dailylog.EnergyHigh:
			total += 10
		}
	}

	return int(math.Round(float64(total) / float64(cycle.Size)))
}

// CalculateScores runs all four weighted calculators over one cycle's
// logs. Sub-score caps sum to 100, so Total is always within [0,100].
func CalculateScores(logs []*dailylog.DailyLog) report.ScoreBreakdown {
	breakdown := report.ScoreBreakdown{
		Completion: CalculateCompletionScore(logs),
		Effort:     CalculateEffortScore(logs),
		Quality:    CalculateQualityScore(logs),
		Difficulty: CalculateDifficultyScore(logs),
	}
	breakdown.Total = breakdown.Completion + breakdown.Effort + breakdown.Quality + breakdown.Difficulty

	return breakdown
}
