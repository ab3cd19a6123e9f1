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
	"lifecopilotAPI/middleware"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LogService struct {
	db      *pgxpool.Pool
	reports *ReportService
}

func NewLogService(db *pgxpool.Pool, reportService *ReportService) *LogService {
	return &LogService{db: db, reports: reportService}
}

const logColumns = `id, user_id, date, intention, planned_duration, actual_duration,
	outcome, completion_quality, difficulty, mood, energy, notes, created_at`

func scanLog(row pgx.Row) (*dailylog.DailyLog, error) {
	l := &dailylog.DailyLog{}
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Date,
		&l.Intention,
		&l.PlannedDuration,
		&l.ActualDuration,
		&l.Outcome,
		&l.CompletionQuality,
		&l.Difficulty,
		&l.Mood,
		&l.Energy,
		&l.Notes,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// queryLogsTx fetches the active cycle's logs inside a transaction. The
// deletion-based invariant keeps the active set at 7 or fewer rows; the
// created_at filter is a defensive secondary check.
func queryLogsTx(ctx context.Context, tx pgx.Tx, userID string, cycleStart time.Time) ([]*dailylog.DailyLog, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+logColumns+`
		FROM daily_logs
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`,
		userID, cycleStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle logs: %w", err)
	}
	defer rows.Close()

	logs := []*dailylog.DailyLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// CreateLogResult is the log-creation outcome the client needs to render
// the cycle: the new count, and whether the 7th log closed the cycle
// automatically or left it waiting on a premium manual trigger.
type CreateLogResult struct {
	Log             *dailylog.DailyLog   `json:"log"`
	CycleCount      int                  `json:"cycleCount"`
	CycleState      cycle.State          `json:"cycleState"`
	ReportGenerated bool                 `json:"reportGenerated"`
	RequiresPremium bool                 `json:"requiresPremium"`
	WeeklyReport    *report.WeeklyReport `json:"weeklyReport,omitempty"`
}

// CreateLog records a new intention. The count check, the one-per-day
// guard and the READY transition all happen under the user row lock so
// two concurrent creations cannot both become the 7th log.
func (s *LogService) CreateLog(ctx context.Context, clerkID string, req *dailylog.CreateLogRequest) (*CreateLogResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID          string
		cycleStart      time.Time
		state           cycle.State
		cyclesCompleted int
		subscription    string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, current_cycle_start, cycle_state, cycles_completed, subscription_status
		FROM users WHERE clerk_id = $1
		FOR UPDATE`,
		clerkID).Scan(&userID, &cycleStart, &state, &cyclesCompleted, &subscription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cycle.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_logs WHERE user_id = $1 AND created_at >= $2`,
		userID, cycleStart).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count cycle logs: %w", err)
	}

	next, err := cycle.OnLogCreated(state, count)
	if err != nil {
		middleware.RecordCycleFull()
		return nil, err
	}

	var dateTaken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM daily_logs
			WHERE user_id = $1 AND date = $2 AND created_at >= $3
		)`,
		userID, req.Date, cycleStart).Scan(&dateTaken)
	if err != nil {
		return nil, fmt.Errorf("failed to check date: %w", err)
	}
	if dateTaken {
		return nil, dailylog.ErrDuplicateDate
	}

	newLog := &dailylog.DailyLog{
		ID:              uuid.New().String(),
		UserID:          userID,
		Date:            req.Date,
		Intention:       req.Intention,
		PlannedDuration: req.PlannedDuration,
		Difficulty:      req.Difficulty,
		Mood:            req.Mood,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO daily_logs (id, user_id, date, intention, planned_duration,
			difficulty, mood, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		newLog.ID,
		newLog.UserID,
		newLog.Date,
		newLog.Intention,
		newLog.PlannedDuration,
		newLog.Difficulty,
		newLog.Mood,
		newLog.Notes,
		newLog.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}

	if next != state {
		_, err = tx.Exec(ctx, `UPDATE users SET cycle_state = $2, updated_at = NOW() WHERE id = $1`,
			userID, next)
		if err != nil {
			return nil, fmt.Errorf("failed to update cycle state: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit log: %w", err)
	}

	result := &CreateLogResult{
		Log:        newLog,
		CycleCount: count + 1,
		CycleState: next,
	}

	if next != cycle.StateReady {
		return result, nil
	}

	auto := cyclesCompleted == 0 || subscription == "trial" || subscription == "premium"
	if !auto {
		result.RequiresPremium = true
		return result, nil
	}

	// The 7th log triggers generation synchronously so the caller learns
	// whether the cycle closed. A persistence failure here does not undo
	// the log; the reconciler retries generation later.
	genResult, err := s.reports.GenerateReport(ctx, clerkID, report.TriggerAuto)
	if err != nil {
		log.Printf("Automatic report generation failed for %s (will be retried): %v", clerkID, err)
		return result, nil
	}
	if genResult.Success {
		result.ReportGenerated = true
		result.WeeklyReport = genResult.WeeklyReport
	}

	return result, nil
}

// CompleteLog resolves a log with its outcome and the fields the user
// fills in when marking it done. Logs stay editable after resolution.
func (s *LogService) CompleteLog(ctx context.Context, clerkID, logID string, req *dailylog.CompleteLogRequest) (*dailylog.DailyLog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
	UPDATE daily_logs SET
		outcome = $3,
		actual_duration = COALESCE($4, actual_duration),
		completion_quality = COALESCE($5, completion_quality),
		energy = COALESCE($6, energy),
		mood = COALESCE($7, mood),
		notes = COALESCE($8, notes)
	WHERE id = $1 AND user_id = (SELECT id FROM users WHERE clerk_id = $2)
	RETURNING ` + logColumns

	l, err := scanLog(s.db.QueryRow(
		ctx,
		query,
		logID,
		clerkID,
		req.Outcome,
		req.ActualDuration,
		req.CompletionQuality,
		req.Energy,
		req.Mood,
		req.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("log not found")
		}
		return nil, fmt.Errorf("failed to complete log: %w", err)
	}

	return l, nil
}

// CycleStatus describes the active cycle for the progress screen.
type CycleStatus struct {
	Logs       []*dailylog.DailyLog `json:"logs"`
	Count      int                  `json:"count"`
	CycleStart time.Time            `json:"cycleStart"`
	CycleState cycle.State          `json:"cycleState"`
}

func (s *LogService) GetCurrentCycle(ctx context.Context, clerkID string) (*CycleStatus, error) {
	var (
		userID     string
		cycleStart time.Time
		state      cycle.State
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, current_cycle_start, cycle_state FROM users WHERE clerk_id = $1`,
		clerkID).Scan(&userID, &cycleStart, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cycle.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+logColumns+`
		FROM daily_logs
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`,
		userID, cycleStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle logs: %w", err)
	}
	defer rows.Close()

	logs := []*dailylog.DailyLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &CycleStatus{
		Logs:       logs,
		Count:      len(logs),
		CycleStart: cycleStart,
		CycleState: state,
	}, nil
}
