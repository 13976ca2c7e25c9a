package professionals

import (
	"errors"
	"time"
)

// Onboarding statuses for a professional's approval pipeline.
const (
	OnboardingNotStarted = "not_started"
	OnboardingInReview   = "application_in_review"
	OnboardingApproved   = "approved"
	OnboardingRejected   = "rejected"
)

// Account statuses.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// ErrProfessionalNotFound is returned when a professional is not found.
var ErrProfessionalNotFound = errors.New("professional not found")

// Profile is the subset of a professional's record the settlement and
// background-check cores operate on.
type Profile struct {
	ID                      string
	Name                    string
	Email                   string
	OnboardingStatus        string
	AccountStatus           string
	DocumentsVerified       bool
	InterviewCompleted      bool
	BackgroundCheckStatus   string
	LatestBackgroundCheckID string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
