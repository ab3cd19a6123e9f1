package user

import (
	"time"

	"lifecopilotAPI/internal/cycle"
)

type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "free"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionPremium SubscriptionStatus = "premium"
)

type User struct {
	ID                  string             `json:"id"`
	ClerkID             string             `json:"clerkId"`
	Email               string             `json:"email"`
	Username            string             `json:"username"`
	ImageURL            string             `json:"imageUrl,omitempty"`
	EmailVerified       bool               `json:"emailVerified"`
	OnboardingCompleted bool               `json:"onboardingCompleted"`
	FocusAreas          []string           `json:"focusAreas"`
	ExperienceLevel     string             `json:"experienceLevel,omitempty"`
	PreferredStyle      string             `json:"preferredStyle,omitempty"`
	SubscriptionStatus  SubscriptionStatus `json:"subscriptionStatus"`
	CurrentCycleStart   time.Time          `json:"currentCycleStart"`
	CycleState          cycle.State        `json:"cycleState"`
	CyclesCompleted     int                `json:"cyclesCompleted"`
	CurrentScore        int                `json:"currentScore"`
	LastReportAt        *time.Time         `json:"lastReportAt"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// Subscribed reports whether the user holds an active paid or trial
// entitlement for weekly report generation.
func (u *User) Subscribed() bool {
	return u.SubscriptionStatus == SubscriptionTrial || u.SubscriptionStatus == SubscriptionPremium
}

// AutoReport reports whether the 7th log should trigger report generation
// synchronously. The first-ever cycle is free for everyone.
func (u *User) AutoReport() bool {
	return u.CyclesCompleted == 0 || u.Subscribed()
}
