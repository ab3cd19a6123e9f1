package utils

import (
	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/internal/report"
)

// GenerateInsights produces up to 4 insight strings from the score
// breakdown and the raw logs, in priority order: completion, effort,
// quality, difficulty signals. This is the deterministic generator the
// report pipeline falls back to whenever the remote provider fails.
func GenerateInsights(logs []*dailylog.DailyLog, scores report.ScoreBreakdown) []string {
	insights := []string{}

	switch {
	case scores.Completion >= 50:
		insights = append(insights, "Great consistency! You're completing most tasks.")
	case scores.Completion >= 30:
		insights = append(insights, "Steady progress. Keep pushing for higher completion rates.")
	default:
		insights = append(insights, "Completion rate is low. Try breaking tasks into smaller pieces.")
	}

	if scores.Effort >= 15 {
		insights = append(insights, "Your time estimation is accurate. Planning is your strength.")
	} else if scores.Effort >= 10 {
		insights = append(insights, "Time estimation needs work. Try tracking duration more carefully.")
	}

	switch {
	case scores.Quality >= 8:
		insights = append(insights, "Excellent quality! You're delivering high-standard work.")
	case scores.Quality >= 5:
		insights = append(insights, "Quality is solid. Look for opportunities to refine further.")
	default:
		insights = append(insights, "Focus on quality over quantity. Slow down and do things right.")
	}

	hardCompleted := 0
	easyMissed := 0
	for _, log := range logs {
		if log.Difficulty == nil || log.Outcome == nil {
			continue
		}
		if *log.Difficulty == dailylog.DifficultyHard && *log.Outcome == dailylog.OutcomeCompleted {
			hardCompleted++
		}
		if *log.Difficulty == dailylog.DifficultyEasy && *log.Outcome == dailylog.OutcomeMissed {
			easyMissed++
		}
	}

	if hardCompleted >= 3 {
		insights = append(insights, "You're tackling hard tasks successfully!")
	}
	if easyMissed >= 2 {
		insights = append(insights, "Watch out: easy tasks are being missed. Don't neglect the fundamentals.")
	}

	if len(insights) > 4 {
		insights = insights[:4]
	}

	return insights
}

// GenerateRecommendation maps the total weekly score to a single
// next-step message.
func GenerateRecommendation(scores report.ScoreBreakdown) string {
	switch {
	case scores.Total >= 80:
		return "You're performing exceptionally! Maintain this momentum and consider increasing task difficulty."
	case scores.Total >= 60:
		return "Good progress! Focus on the areas with lower scores next week to improve balance."
	case scores.Total >= 40:
		return "You're getting started. Try setting smaller, more achievable goals and build from there."
	default:
		return "It's been a challenging week. Reset your expectations, focus on 2-3 key priorities, and build back up gradually."
	}
}
