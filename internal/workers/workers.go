package workers

import (
	"context"
	"log"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/report"
	"lifecopilotAPI/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// StartReportReconciler runs a periodic sweep for cycles whose report
// generation was started but never finished (a crash between the claim
// and the commit leaves the state at processing), and for ready cycles of
// auto-entitled users whose synchronous trigger failed. Generation is
// idempotent, so re-invoking it is always safe.
func StartReportReconciler(db *pgxpool.Pool, reportService *services.ReportService) *cron.Cron {
	c := cron.New()

	c.AddFunc("@every 10m", func() {
		reconcileReports(db, reportService)
	})

	c.Start()
	log.Println("Report reconciler started (every 10m)")
	return c
}

func reconcileReports(db *pgxpool.Pool, reportService *services.ReportService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := db.Query(ctx, `
		SELECT clerk_id FROM users
		WHERE cycle_state = $1
		   OR (cycle_state = $2 AND (cycles_completed = 0 OR subscription_status IN ('trial', 'premium')))`,
		cycle.StateProcessing, cycle.StateReady)
	if err != nil {
		log.Printf("Reconciler: failed to query stuck cycles: %v", err)
		return
	}
	defer rows.Close()

	clerkIDs := []string{}
	for rows.Next() {
		var clerkID string
		if err := rows.Scan(&clerkID); err != nil {
			continue
		}
		clerkIDs = append(clerkIDs, clerkID)
	}

	for _, clerkID := range clerkIDs {
		result, err := reportService.GenerateReport(ctx, clerkID, report.TriggerAuto)
		if err != nil {
			log.Printf("Reconciler: report generation for %s failed: %v", clerkID, err)
			continue
		}
		if result.Success {
			log.Printf("Reconciler: recovered report for %s (score=%d)",
				clerkID, result.WeeklyReport.WeeklyScore)
		}
	}
}
