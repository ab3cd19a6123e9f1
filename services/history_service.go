package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/internal/history"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryService struct {
	db *pgxpool.Pool
}

func NewHistoryService(db *pgxpool.Pool) *HistoryService {
	return &HistoryService{db: db}
}

// ArchiveCycleTx moves a closed cycle's logs into history and deletes
// them from the active set, inside the caller's transaction: either both
// writes commit or neither does. The insert is keyed on (user_id,
// cycle_start) with DO NOTHING so a retried close never double-archives,
// and the delete-by-id is a no-op the second time.
func (s *HistoryService) ArchiveCycleTx(ctx context.Context, tx pgx.Tx, userID string, logs []*dailylog.DailyLog, cycleStart, cycleEnd time.Time) error {
	if len(logs) == 0 {
		return nil
	}

	snapshot, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("failed to encode cycle logs: %w", err)
	}

	completed := 0
	logIDs := make([]string, 0, len(logs))
	for _, l := range logs {
		logIDs = append(logIDs, l.ID)
		if l.Outcome != nil && *l.Outcome == dailylog.OutcomeCompleted {
			completed++
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO history_cycles (user_id, cycle_start, cycle_end, logs,
			total_logs, completed_logs, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, cycle_start) DO NOTHING`,
		userID, cycleStart, cycleEnd, snapshot, len(logs), completed)
	if err != nil {
		return fmt.Errorf("failed to archive cycle: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM daily_logs WHERE user_id = $1 AND id = ANY($2)`,
		userID, logIDs)
	if err != nil {
		return fmt.Errorf("failed to clear archived logs: %w", err)
	}

	return nil
}

// GetUserHistory returns the user's archived cycles, newest first.
func (s *HistoryService) GetUserHistory(ctx context.Context, clerkID string) ([]*history.HistoryCycle, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cycle.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, cycle_start, cycle_end, logs, total_logs, completed_logs, archived_at
		FROM history_cycles
		WHERE user_id = $1
		ORDER BY cycle_start DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	cycles := []*history.HistoryCycle{}
	for rows.Next() {
		h := &history.HistoryCycle{}
		var snapshot []byte
		err := rows.Scan(&h.UserID, &h.CycleStart, &h.CycleEnd, &snapshot,
			&h.TotalLogs, &h.CompletedLogs, &h.ArchivedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history cycle: %w", err)
		}
		if err := json.Unmarshal(snapshot, &h.Logs); err != nil {
			return nil, fmt.Errorf("failed to decode cycle logs: %w", err)
		}
		cycles = append(cycles, h)
	}

	return cycles, rows.Err()
}
