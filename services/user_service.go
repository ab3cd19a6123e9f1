package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, clerk_id, email, username, image_url, email_verified,
	onboarding_completed, focus_areas, experience_level, preferred_style,
	subscription_status, current_cycle_start, cycle_state, cycles_completed,
	current_score, last_report_at, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.ImageURL,
		&u.EmailVerified,
		&u.OnboardingCompleted,
		&u.FocusAreas,
		&u.ExperienceLevel,
		&u.PreferredStyle,
		&u.SubscriptionStatus,
		&u.CurrentCycleStart,
		&u.CycleState,
		&u.CyclesCompleted,
		&u.CurrentScore,
		&u.LastReportAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser provisions a new user from a Clerk webhook. The cycle state
// starts accumulating from now, with no completed cycles and a free tier.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	now := time.Now()

	query := `
	INSERT INTO users (id, clerk_id, email, username, image_url,
		subscription_status, current_cycle_start, cycle_state,
		cycles_completed, current_score, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9, $9)
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(
		ctx,
		query,
		uuid.New().String(),
		req.ClerkID,
		req.Email,
		req.Username,
		req.ImageURL,
		user.SubscriptionFree,
		now,
		cycle.StateAccumulating,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cycle.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		username = COALESCE(NULLIF($2, ''), username),
		image_url = COALESCE(NULLIF($3, ''), image_url),
		onboarding_completed = COALESCE($4, onboarding_completed),
		focus_areas = COALESCE($5, focus_areas),
		experience_level = COALESCE(NULLIF($6, ''), experience_level),
		preferred_style = COALESCE(NULLIF($7, ''), preferred_style),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(
		ctx,
		query,
		clerkID,
		req.Username,
		req.ImageURL,
		req.OnboardingCompleted,
		req.FocusAreas,
		req.ExperienceLevel,
		req.PreferredStyle,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cycle.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

// DeleteUserByClerkID removes the user and all of their data. Logs,
// reports and history rows cascade from the users row.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cycle.ErrUserNotFound
	}

	log.Printf("Deleted user account: clerk_id=%s", clerkID)
	return nil
}

// SetSubscriptionStatus is called from the Stripe webhook flow. The
// customer id is remembered so later subscription events can be mapped
// back to the user.
func (s *UserService) SetSubscriptionStatus(ctx context.Context, clerkID string, status user.SubscriptionStatus, stripeCustomerID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			subscription_status = $2,
			stripe_customer_id = COALESCE(NULLIF($3, ''), stripe_customer_id),
			updated_at = NOW()
		WHERE clerk_id = $1`,
		clerkID, status, stripeCustomerID)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cycle.ErrUserNotFound
	}

	log.Printf("Subscription status for %s set to %s", clerkID, status)
	return nil
}

// SetSubscriptionStatusByCustomerID handles recurring Stripe events that
// only carry the customer id.
func (s *UserService) SetSubscriptionStatusByCustomerID(ctx context.Context, stripeCustomerID string, status user.SubscriptionStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET subscription_status = $2, updated_at = NOW()
		WHERE stripe_customer_id = $1`,
		stripeCustomerID, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cycle.ErrUserNotFound
	}

	log.Printf("Subscription status for customer %s set to %s", stripeCustomerID, status)
	return nil
}
