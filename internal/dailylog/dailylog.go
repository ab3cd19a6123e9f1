package dailylog

import (
	"errors"
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeMissed    Outcome = "missed"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodTired   Mood = "tired"
)

type Energy string

const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

// ErrDuplicateDate is returned when a user already logged an intention
// for the requested calendar day in the active cycle.
var ErrDuplicateDate = errors.New("an intention is already logged for this date")

// DailyLog is one user-recorded intention for one day. A log is resolved
// once Outcome is set; unresolved logs still count toward the cycle.
type DailyLog struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	Date              string      `json:"date"` // YYYY-MM-DD
	Intention         string      `json:"intention"`
	PlannedDuration   int         `json:"plannedDuration"` // seconds
	ActualDuration    *int        `json:"actualDuration"`
	Outcome           *Outcome    `json:"outcome"`
	CompletionQuality *int        `json:"completionQuality"` // 1-5
	Difficulty        *Difficulty `json:"difficulty,omitempty"`
	Mood              *Mood       `json:"mood,omitempty"`
	Energy            *Energy     `json:"energy,omitempty"`
	Notes             *string     `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

type CreateLogRequest struct {
	Date            string      `json:"date"`
	Intention       string      `json:"intention"`
	PlannedDuration int         `json:"plannedDuration"`
	Difficulty      *Difficulty `json:"difficulty,omitempty"`
	Mood            *Mood       `json:"mood,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
}

func (r *CreateLogRequest) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	if r.Intention == "" {
		return errors.New("intention is required")
	}
	if r.PlannedDuration <= 0 {
		return errors.New("plannedDuration must be a positive number of seconds")
	}
	if r.Difficulty != nil && !validDifficulty(*r.Difficulty) {
		return fmt.Errorf("invalid difficulty %q", *r.Difficulty)
	}
	if r.Mood != nil && !validMood(*r.Mood) {
		return fmt.Errorf("invalid mood %q", *r.Mood)
	}
	return nil
}

type CompleteLogRequest struct {
	Outcome           Outcome `json:"outcome"`
	ActualDuration    *int    `json:"actualDuration,omitempty"`
	CompletionQuality *int    `json:"completionQuality,omitempty"`
	Energy            *Energy `json:"energy,omitempty"`
	Mood              *Mood   `json:"mood,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

func (r *CompleteLogRequest) Validate() error {
	switch r.Outcome {
	case OutcomeCompleted, OutcomePartial, OutcomeMissed:
	default:
		return fmt.Errorf("invalid outcome %q", r.Outcome)
	}
	if r.ActualDuration != nil && *r.ActualDuration < 0 {
		return errors.New("actualDuration cannot be negative")
	}
	if r.CompletionQuality != nil && (*r.CompletionQuality < 1 || *r.CompletionQuality > 5) {
		return errors.New("completionQuality must be between 1 and 5")
	}
	if r.Energy != nil && !validEnergy(*r.Energy) {
		return fmt.Errorf("invalid energy %q", *r.Energy)
	}
	if r.Mood != nil && !validMood(*r.Mood) {
		return fmt.Errorf("invalid mood %q", *r.Mood)
	}
	return nil
}

func validDifficulty(d Difficulty) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

func validMood(m Mood) bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad, MoodAngry, MoodTired:
		return true
	}
	return false
}

func validEnergy(e Energy) bool {
	return e == EnergyLow || e == EnergyMedium || e == EnergyHigh
}
