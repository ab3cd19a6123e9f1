package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/internal/report"
	"lifecopilotAPI/internal/user"
	"lifecopilotAPI/middleware"
	"lifecopilotAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsightProvider generates natural-language insights remotely. Any
// failure makes the pipeline fall back to the deterministic generator;
// a provider can never fail a report.
type InsightProvider interface {
	GenerateInsights(ctx context.Context, payload *report.InsightPayload) (*report.InsightResult, error)
}

const insightTimeout = 10 * time.Second

type ReportService struct {
	db       *pgxpool.Pool
	history  *HistoryService
	insights InsightProvider
}

func NewReportService(db *pgxpool.Pool, historyService *HistoryService) *ReportService {
	return &ReportService{db: db, history: historyService}
}

// SetInsightProvider injects the remote provider from main.go. Without
// one, reports use the deterministic generator directly.
func (s *ReportService) SetInsightProvider(p InsightProvider) {
	s.insights = p
}

// claimedCycle is a cycle a report run has marked as processing. The
// claim holds no locks; commitReport re-checks the cycle pointer before
// writing anything.
type claimedCycle struct {
	userID          string
	clerkID         string
	cycleStart      time.Time
	cyclesCompleted int
	logs            []*dailylog.DailyLog
}

// GenerateReport closes the user's active cycle: validates readiness and
// entitlement, computes the weekly scores, generates insights, persists
// the report, archives the logs and resets the cycle pointer. Concurrent
// calls for the same user serialize on the user row; a repeated call for
// an already-closed cycle is a no-op returning success=false.
func (s *ReportService) GenerateReport(ctx context.Context, clerkID string, trigger report.Trigger) (*report.GenerateResult, error) {
	claim, early, err := s.claimCycle(ctx, clerkID, trigger)
	if err != nil {
		middleware.RecordReportFailure()
		return nil, err
	}
	if early != nil {
		return early, nil
	}

	// Pure computation; never retried, never touches the store.
	breakdown := utils.CalculateScores(claim.logs)
	insights, recommendation := s.resolveInsights(ctx, claim, breakdown)

	result, err := s.commitReport(ctx, claim, breakdown, insights, recommendation)
	if err != nil {
		middleware.RecordReportFailure()
		return nil, err
	}
	if result.Success {
		middleware.RecordReportGenerated()
	}
	return result, nil
}

// claimCycle validates readiness and entitlement under the user row lock
// and marks the cycle as processing. Returning a non-nil GenerateResult
// means the run stops there (not ready, or subscription required).
func (s *ReportService) claimCycle(ctx context.Context, clerkID string, trigger report.Trigger) (*claimedCycle, *report.GenerateResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID          string
		cycleStart      time.Time
		state           cycle.State
		cyclesCompleted int
		subscription    user.SubscriptionStatus
	)
	err = tx.QueryRow(ctx, `
		SELECT id, current_cycle_start, cycle_state, cycles_completed, subscription_status
		FROM users WHERE clerk_id = $1
		FOR UPDATE`,
		clerkID).Scan(&userID, &cycleStart, &state, &cyclesCompleted, &subscription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, cycle.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	logs, err := queryLogsTx(ctx, tx, userID, cycleStart)
	if err != nil {
		return nil, nil, err
	}

	if len(logs) < cycle.Size {
		missing := cycle.Size - len(logs)
		return nil, &report.GenerateResult{
			Success: false,
			Message: fmt.Sprintf("cycle has %d of %d logs: add %d more to generate your report", len(logs), cycle.Size, missing),
		}, nil
	}

	subscribed := subscription == user.SubscriptionTrial || subscription == user.SubscriptionPremium
	if trigger == report.TriggerManual && cyclesCompleted > 0 && !subscribed {
		return nil, &report.GenerateResult{
			Success:              false,
			RequiresSubscription: true,
			Message:              "upgrade to premium to generate weekly reports",
		}, nil
	}

	if !cycle.CanGenerate(state) {
		// The 7th-log transition should have flipped the state already;
		// the log count is the source of truth, so repair and continue.
		log.Printf("Cycle state for %s lagged behind log count (%s), repairing", clerkID, state)
	}

	logs = logs[:cycle.Size]

	_, err = tx.Exec(ctx, `UPDATE users SET cycle_state = $2, updated_at = NOW() WHERE id = $1`,
		userID, cycle.StateProcessing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim cycle: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to claim cycle: %w", err)
	}

	return &claimedCycle{
		userID:          userID,
		clerkID:         clerkID,
		cycleStart:      cycleStart,
		cyclesCompleted: cyclesCompleted,
		logs:            logs,
	}, nil, nil
}

// resolveInsights asks the remote provider first and falls back to the
// deterministic rules on any failure. The fallback is mandatory: this
// function always returns usable insights.
func (s *ReportService) resolveInsights(ctx context.Context, claim *claimedCycle, breakdown report.ScoreBreakdown) ([]string, string) {
	if s.insights != nil {
		ictx, cancel := context.WithTimeout(ctx, insightTimeout)
		defer cancel()

		payload := &report.InsightPayload{
			CycleLogs:       claim.logs,
			WeeklyScore:     breakdown.Total,
			CompletionScore: breakdown.Completion,
			EffortScore:     breakdown.Effort,
			QualityScore:    breakdown.Quality,
			EnergyScore:     utils.CalculateEnergyScore(claim.logs),
			DifficultyScore: breakdown.Difficulty,
		}

		res, err := s.insights.GenerateInsights(ictx, payload)
		switch {
		case err != nil:
			log.Printf("Remote insight generation failed for %s, using fallback: %v", claim.clerkID, err)
		case res == nil || len(res.Insights) == 0 || res.Recommendation == "":
			log.Printf("Remote insight generation returned malformed payload for %s, using fallback", claim.clerkID)
		default:
			insights := res.Insights
			if len(insights) > 4 {
				insights = insights[:4]
			}
			return insights, res.Recommendation
		}
		middleware.RecordInsightFallback()
	}

	return utils.GenerateInsights(claim.logs, breakdown), utils.GenerateRecommendation(breakdown)
}

// commitReport writes the report, archives the logs and resets the cycle
// pointer in one transaction. If another run closed the cycle in the
// meantime the pointer check fails and nothing is written.
func (s *ReportService) commitReport(ctx context.Context, claim *claimedCycle, breakdown report.ScoreBreakdown, insights []string, recommendation string) (*report.GenerateResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStart time.Time
	err = tx.QueryRow(ctx, `SELECT current_cycle_start FROM users WHERE id = $1 FOR UPDATE`,
		claim.userID).Scan(&currentStart)
	if err != nil {
		return nil, fmt.Errorf("failed to re-check cycle pointer: %w", err)
	}

	if !currentStart.Equal(claim.cycleStart) {
		return &report.GenerateResult{
			Success: false,
			Message: "cycle already closed by another report run",
		}, nil
	}

	now := time.Now()
	weeklyReport := &report.WeeklyReport{
		UserID:           claim.userID,
		CycleStart:       claim.cycleStart,
		CycleEnd:         now,
		WeeklyScore:      breakdown.Total,
		ConsistencyLevel: report.ConsistencyFor(breakdown.Completion),
		Breakdown: report.Breakdown{
			Completion: breakdown.Completion,
			Effort:     breakdown.Effort,
			Quality:    breakdown.Quality,
			Difficulty: breakdown.Difficulty,
		},
		AIInsights:     insights,
		Recommendation: recommendation,
		GeneratedAt:    now,
	}

	// Upsert on (user_id, cycle_start): a retried generation for the same
	// cycle overwrites instead of duplicating.
	_, err = tx.Exec(ctx, `
		INSERT INTO weekly_reports (user_id, cycle_start, cycle_end, weekly_score,
			consistency_level, completion_score, effort_score, quality_score,
			difficulty_score, ai_insights, recommendation, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, cycle_start) DO UPDATE SET
			cycle_end = EXCLUDED.cycle_end,
			weekly_score = EXCLUDED.weekly_score,
			consistency_level = EXCLUDED.consistency_level,
			completion_score = EXCLUDED.completion_score,
			effort_score = EXCLUDED.effort_score,
			quality_score = EXCLUDED.quality_score,
			difficulty_score = EXCLUDED.difficulty_score,
			ai_insights = EXCLUDED.ai_insights,
			recommendation = EXCLUDED.recommendation,
			generated_at = EXCLUDED.generated_at`,
		weeklyReport.UserID,
		weeklyReport.CycleStart,
		weeklyReport.CycleEnd,
		weeklyReport.WeeklyScore,
		weeklyReport.ConsistencyLevel,
		weeklyReport.Breakdown.Completion,
		weeklyReport.Breakdown.Effort,
		weeklyReport.Breakdown.Quality,
		weeklyReport.Breakdown.Difficulty,
		weeklyReport.AIInsights,
		weeklyReport.Recommendation,
		weeklyReport.GeneratedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save weekly report: %w", err)
	}

	if err := s.history.ArchiveCycleTx(ctx, tx, claim.userID, claim.logs, claim.cycleStart, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET
			current_cycle_start = $2,
			cycle_state = $3,
			cycles_completed = cycles_completed + 1,
			current_score = $4,
			last_report_at = $5,
			updated_at = $5
		WHERE id = $1`,
		claim.userID, now, cycle.StateAccumulating, weeklyReport.WeeklyScore, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reset cycle pointer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit report: %w", err)
	}

	log.Printf("Weekly report generated for %s: score=%d consistency=%s",
		claim.clerkID, weeklyReport.WeeklyScore, weeklyReport.ConsistencyLevel)

	return &report.GenerateResult{Success: true, WeeklyReport: weeklyReport}, nil
}

const reportColumns = `user_id, cycle_start, cycle_end, weekly_score, consistency_level,
	completion_score, effort_score, quality_score, difficulty_score,
	ai_insights, recommendation, generated_at`

func scanReport(row pgx.Row) (*report.WeeklyReport, error) {
	r := &report.WeeklyReport{}
	err := row.Scan(
		&r.UserID,
		&r.CycleStart,
		&r.CycleEnd,
		&r.WeeklyScore,
		&r.ConsistencyLevel,
		&r.Breakdown.Completion,
		&r.Breakdown.Effort,
		&r.Breakdown.Quality,
		&r.Breakdown.Difficulty,
		&r.AIInsights,
		&r.Recommendation,
		&r.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportService) GetLatestReport(ctx context.Context, clerkID string) (*report.WeeklyReport, error) {
	query := `
	SELECT ` + reportColumns + `
	FROM weekly_reports r
	JOIN users u ON u.id = r.user_id
	WHERE u.clerk_id = $1
	ORDER BY r.generated_at DESC
	LIMIT 1`

	r, err := scanReport(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}
	return r, nil
}

func (s *ReportService) GetAllReports(ctx context.Context, clerkID string, limit int) ([]*report.WeeklyReport, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
	SELECT ` + reportColumns + `
	FROM weekly_reports r
	JOIN users u ON u.id = r.user_id
	WHERE u.clerk_id = $1
	ORDER BY r.generated_at DESC
	LIMIT $2`

	rows, err := s.db.Query(ctx, query, clerkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	defer rows.Close()

	reports := []*report.WeeklyReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}
