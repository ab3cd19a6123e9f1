package history

import (
	"time"

	"lifecopilotAPI/internal/dailylog"
)

// HistoryCycle is the archival record of a closed cycle. The logs column
// stores the full snapshot of all 7 logs, resolved or not. Entries are
// immutable; cycleStart is the idempotency key so a retried close can
// never double-archive.
type HistoryCycle struct {
	UserID        string               `json:"userId"`
	Logs          []*dailylog.DailyLog `json:"logs"`
	CycleStart    time.Time            `json:"cycleStart"`
	CycleEnd      time.Time            `json:"cycleEnd"`
	TotalLogs     int                  `json:"totalLogs"`
	CompletedLogs int                  `json:"completedLogs"`
	ArchivedAt    time.Time            `json:"archivedAt"`
}
