package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecopilotAPI/handlers"
	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/history"
	"lifecopilotAPI/internal/report"
	"lifecopilotAPI/internal/user"
	"lifecopilotAPI/middleware"
	"lifecopilotAPI/services"
	"lifecopilotAPI/tests/helpers"
)

type testEnv struct {
	userService    *services.UserService
	logService     *services.LogService
	reportService  *services.ReportService
	historyService *services.HistoryService
	userHandler    *handlers.UserHandler
	logHandler     *handlers.LogHandler
	reportHandler  *handlers.ReportHandler
	historyHandler *handlers.HistoryHandler
	webhookHandler *handlers.WebhookHandler
}

func setupEnv(t *testing.T) (*testEnv, func()) {
	pool := helpers.SetupTestDB(t)

	userService := services.NewUserService(pool)
	historyService := services.NewHistoryService(pool)
	reportService := services.NewReportService(pool, historyService)
	logService := services.NewLogService(pool, reportService)

	env := &testEnv{
		userService:    userService,
		logService:     logService,
		reportService:  reportService,
		historyService: historyService,
		userHandler:    handlers.NewUserHandler(userService),
		logHandler:     handlers.NewLogHandler(logService),
		reportHandler:  handlers.NewReportHandler(reportService),
		historyHandler: handlers.NewHistoryHandler(historyService),
		webhookHandler: handlers.NewWebhookHandler(userService),
	}

	os.Setenv("CLERK_WEBHOOK_SECRET", "")

	return env, func() {
		os.Unsetenv("CLERK_WEBHOOK_SECRET")
		helpers.CleanupTestDB(t, pool)
	}
}

func (e *testEnv) createTestUser(t *testing.T) string {
	clerkID := "user_test_" + time.Now().Format("20060102150405.000000")

	payload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := httptest.NewRecorder()

	e.webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "user.created webhook should succeed")

	return clerkID
}

func authedRequest(method, target string, body []byte, clerkID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	return req.WithContext(ctx)
}

func (e *testEnv) createLog(t *testing.T, clerkID, date string) (*services.CreateLogResult, *httptest.ResponseRecorder) {
	req := authedRequest(http.MethodPost, "/api/v1/logs", helpers.MockLogPayload(date), clerkID)
	rr := httptest.NewRecorder()
	e.logHandler.CreateLog(rr, req)

	if rr.Code != http.StatusCreated {
		return nil, rr
	}

	var result services.CreateLogResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	return &result, rr
}

func (e *testEnv) completeLog(t *testing.T, clerkID, logID string) {
	body := helpers.MockCompletePayload("completed", 3600, 4)
	req := authedRequest(http.MethodPut, "/api/v1/logs/"+logID+"/complete", body, clerkID)
	req = mux.SetURLVars(req, map[string]string{"logId": logID})
	rr := httptest.NewRecorder()
	e.logHandler.CompleteLog(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "completing log %s should succeed", logID)
}

// TestFirstCycleGeneratesReportAutomatically walks a fresh user through
// their first 7-day cycle: the 7th log closes the cycle, produces a
// report, archives the logs and starts the next cycle.
func TestFirstCycleGeneratesReportAutomatically(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	clerkID := env.createTestUser(t)
	ctx := context.Background()

	for day := 1; day <= 6; day++ {
		result, rr := env.createLog(t, clerkID, fmt.Sprintf("2025-04-%02d", day))
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, day, result.CycleCount)
		assert.Equal(t, cycle.StateAccumulating, result.CycleState)
		assert.False(t, result.ReportGenerated)

		env.completeLog(t, clerkID, result.Log.ID)
	}

	// The 7th log triggers automatic generation for a first cycle even
	// on the free tier.
	result, rr := env.createLog(t, clerkID, "2025-04-07")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 7, result.CycleCount)
	assert.True(t, result.ReportGenerated, "first cycle should close automatically")
	assert.False(t, result.RequiresPremium)
	require.NotNil(t, result.WeeklyReport)

	// 6 of 7 completed -> completion 51, consistency high.
	assert.Equal(t, 51, result.WeeklyReport.Breakdown.Completion)
	assert.Equal(t, report.ConsistencyHigh, result.WeeklyReport.ConsistencyLevel)
	assert.NotEmpty(t, result.WeeklyReport.AIInsights)
	assert.NotEmpty(t, result.WeeklyReport.Recommendation)

	// The report is retrievable.
	req := authedRequest(http.MethodGet, "/api/v1/reports/latest", nil, clerkID)
	rr2 := httptest.NewRecorder()
	env.reportHandler.GetLatestReport(rr2, req)
	require.Equal(t, http.StatusOK, rr2.Code)

	var latest report.WeeklyReport
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &latest))
	assert.Equal(t, result.WeeklyReport.WeeklyScore, latest.WeeklyScore)

	// The active cycle restarted empty.
	req = authedRequest(http.MethodGet, "/api/v1/logs", nil, clerkID)
	rr3 := httptest.NewRecorder()
	env.logHandler.GetCurrentCycle(rr3, req)
	require.Equal(t, http.StatusOK, rr3.Code)

	var status services.CycleStatus
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &status))
	assert.Equal(t, 0, status.Count)
	assert.Equal(t, cycle.StateAccumulating, status.CycleState)

	// The old logs live in history now.
	req = authedRequest(http.MethodGet, "/api/v1/history", nil, clerkID)
	rr4 := httptest.NewRecorder()
	env.historyHandler.GetHistory(rr4, req)
	require.Equal(t, http.StatusOK, rr4.Code)

	var cycles []*history.HistoryCycle
	require.NoError(t, json.Unmarshal(rr4.Body.Bytes(), &cycles))
	require.Len(t, cycles, 1)
	assert.Equal(t, 7, cycles[0].TotalLogs)
	assert.Equal(t, 6, cycles[0].CompletedLogs)
	assert.Len(t, cycles[0].Logs, 7)

	u, err := env.userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.CyclesCompleted)
	assert.Equal(t, result.WeeklyReport.WeeklyScore, u.CurrentScore)
}

// TestSecondCycleRequiresPremium covers entitlement gating: after the
// free first cycle, a free user's full cycle waits for an upgrade, and
// an 8th log is rejected while it waits.
func TestSecondCycleRequiresPremium(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	clerkID := env.createTestUser(t)
	ctx := context.Background()

	// First cycle closes automatically.
	for day := 1; day <= 7; day++ {
		result, rr := env.createLog(t, clerkID, fmt.Sprintf("2025-05-%02d", day))
		require.Equal(t, http.StatusCreated, rr.Code)
		if day == 7 {
			require.True(t, result.ReportGenerated)
		}
	}

	// Second cycle: the 7th log leaves the cycle waiting on premium.
	var seventhResult *services.CreateLogResult
	for day := 8; day <= 14; day++ {
		result, rr := env.createLog(t, clerkID, fmt.Sprintf("2025-05-%02d", day))
		require.Equal(t, http.StatusCreated, rr.Code)
		seventhResult = result
	}
	assert.False(t, seventhResult.ReportGenerated)
	assert.True(t, seventhResult.RequiresPremium)
	assert.Equal(t, cycle.StateReady, seventhResult.CycleState)

	// An 8th log cannot join a full cycle.
	_, rr := env.createLog(t, clerkID, "2025-05-15")
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Manual generation on the free tier is refused, not failed.
	req := authedRequest(http.MethodPost, "/api/v1/reports/generate", nil, clerkID)
	rr2 := httptest.NewRecorder()
	env.reportHandler.GenerateReport(rr2, req)
	require.Equal(t, http.StatusOK, rr2.Code)

	var refused report.GenerateResult
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &refused))
	assert.False(t, refused.Success)
	assert.True(t, refused.RequiresSubscription)

	// Upgrade and retry.
	require.NoError(t, env.userService.SetSubscriptionStatus(ctx, clerkID, user.SubscriptionPremium, "cus_test123"))

	req = authedRequest(http.MethodPost, "/api/v1/reports/generate", nil, clerkID)
	rr3 := httptest.NewRecorder()
	env.reportHandler.GenerateReport(rr3, req)
	require.Equal(t, http.StatusOK, rr3.Code)

	var generated report.GenerateResult
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &generated))
	assert.True(t, generated.Success)
	require.NotNil(t, generated.WeeklyReport)

	u, err := env.userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 2, u.CyclesCompleted)
	assert.Equal(t, cycle.StateAccumulating, u.CycleState)
}

// TestGenerateReportIsIdempotent asserts a second trigger on a fresh
// cycle is a calm no-op rather than a duplicate report.
func TestGenerateReportIsIdempotent(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	clerkID := env.createTestUser(t)
	ctx := context.Background()

	for day := 1; day <= 7; day++ {
		_, rr := env.createLog(t, clerkID, fmt.Sprintf("2025-06-%02d", day))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	// The cycle already closed on the 7th log; a manual retry reports
	// not-ready for the new empty cycle.
	result, err := env.reportService.GenerateReport(ctx, clerkID, report.TriggerManual)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.RequiresSubscription)

	reports, err := env.reportService.GetAllReports(ctx, clerkID, 50)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	cycles, err := env.historyService.GetUserHistory(ctx, clerkID)
	require.NoError(t, err)
	assert.Len(t, cycles, 1)
}

// TestDuplicateDateRejected covers the one-intention-per-day guard.
func TestDuplicateDateRejected(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	clerkID := env.createTestUser(t)

	_, rr := env.createLog(t, clerkID, "2025-07-01")
	require.Equal(t, http.StatusCreated, rr.Code)

	_, rr = env.createLog(t, clerkID, "2025-07-01")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

// TestGenerateReportBeforeCycleReady asserts the not-ready message names
// the remaining log count.
func TestGenerateReportBeforeCycleReady(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()

	clerkID := env.createTestUser(t)

	for day := 1; day <= 3; day++ {
		_, rr := env.createLog(t, clerkID, fmt.Sprintf("2025-08-%02d", day))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	req := authedRequest(http.MethodPost, "/api/v1/reports/generate", nil, clerkID)
	rr := httptest.NewRecorder()
	env.reportHandler.GenerateReport(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var result report.GenerateResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "3 of 7")
}
