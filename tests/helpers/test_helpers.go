package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to the test database and makes sure the schema
// exists. Tests are skipped when no database URL is configured.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return pool
}

// EnsureSchema creates the tables the services expect. Mirrors the
// production migrations closely enough for integration tests.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			clerk_id TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
			focus_areas TEXT[] NOT NULL DEFAULT '{}',
			experience_level TEXT NOT NULL DEFAULT '',
			preferred_style TEXT NOT NULL DEFAULT '',
			subscription_status TEXT NOT NULL DEFAULT 'free',
			stripe_customer_id TEXT,
			current_cycle_start TIMESTAMPTZ NOT NULL,
			cycle_state TEXT NOT NULL DEFAULT 'accumulating',
			cycles_completed INTEGER NOT NULL DEFAULT 0,
			current_score INTEGER NOT NULL DEFAULT 0,
			last_report_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			intention TEXT NOT NULL,
			planned_duration INTEGER NOT NULL,
			actual_duration INTEGER,
			outcome TEXT,
			completion_quality INTEGER,
			difficulty TEXT,
			mood TEXT,
			energy TEXT,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS weekly_reports (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			cycle_start TIMESTAMPTZ NOT NULL,
			cycle_end TIMESTAMPTZ NOT NULL,
			weekly_score INTEGER NOT NULL,
			consistency_level TEXT NOT NULL,
			completion_score INTEGER NOT NULL,
			effort_score INTEGER NOT NULL,
			quality_score INTEGER NOT NULL,
			difficulty_score INTEGER NOT NULL,
			ai_insights TEXT[] NOT NULL DEFAULT '{}',
			recommendation TEXT NOT NULL DEFAULT '',
			generated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, cycle_start)
		)`,
		`CREATE TABLE IF NOT EXISTS history_cycles (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			cycle_start TIMESTAMPTZ NOT NULL,
			cycle_end TIMESTAMPTZ NOT NULL,
			logs JSONB NOT NULL,
			total_logs INTEGER NOT NULL,
			completed_logs INTEGER NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, cycle_start)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// CleanupTestDB removes test users (cascading to their logs, reports and
// history) and closes the pool.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE clerk_id LIKE 'user_test_%'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// GenerateMockClerkJWT generates a mock JWT token for testing
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload creates a mock webhook payload
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com",
					"verification": {"status": "verified"}
				}],
				"primary_email_address_id": "email_123",
				"username": "testuser",
				"image_url": "https://example.com/image.jpg",
				"profile_image_url": "https://example.com/image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "User",
				"email_addresses": [{
					"id": "email_123",
					"email_address": "test.user@example.com",
					"verification": {"status": "verified"}
				}],
				"username": "updateduser",
				"image_url": "https://example.com/new-image.jpg"
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"deleted": true
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}

// MockLogPayload builds a log-creation request body for the given date.
func MockLogPayload(date string) []byte {
	return []byte(fmt.Sprintf(`{
		"date": "%s",
		"intention": "Deep work session",
		"plannedDuration": 3600,
		"difficulty": "medium",
		"mood": "neutral"
	}`, date))
}

// MockCompletePayload builds a log-completion request body.
func MockCompletePayload(outcome string, actualDuration, quality int) []byte {
	return []byte(fmt.Sprintf(`{
		"outcome": "%s",
		"actualDuration": %d,
		"completionQuality": %d,
		"energy": "high"
	}`, outcome, actualDuration, quality))
}
