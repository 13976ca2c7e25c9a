package professionals

import "strings"

// Action is one of the mutually exclusive onboarding outcomes a completed
// background check can trigger.
type Action string

const (
	ActionNone    Action = "none"
	ActionApprove Action = "approve"
	ActionReview  Action = "review"
	ActionReject  Action = "reject"
)

// CheckOutcome is the authoritative result of a completed background check.
// Status and recommendation values are provider-defined strings.
type CheckOutcome struct {
	Status         string
	Recommendation string
}

// Decision is the evaluated onboarding transition for a check outcome.
// Matched records every guard that fired so callers can alert when more than
// one matched; Action reflects the last matching guard.
type Decision struct {
	Action           Action
	OnboardingStatus string
	AccountStatus    string
	Matched          []Action
}

// Evaluate applies the onboarding guards in order against a check outcome.
// The guards are evaluated independently; the last match wins.
//
//   - clear/approved auto-approves only when documents and interview are
//     already done; a clean check alone is necessary, not sufficient.
//   - consider/review flags the application for a human.
//   - suspended/rejected rejects the application and suspends the account.
//
// Terminal onboarding states are never left automatically: once a profile is
// approved or rejected, Evaluate returns ActionNone.
func Evaluate(outcome CheckOutcome, profile Profile) Decision {
	decision := Decision{
		Action:           ActionNone,
		OnboardingStatus: profile.OnboardingStatus,
		AccountStatus:    profile.AccountStatus,
	}

	if profile.OnboardingStatus == OnboardingApproved || profile.OnboardingStatus == OnboardingRejected {
		return decision
	}

	status := strings.ToLower(strings.TrimSpace(outcome.Status))
	recommendation := strings.ToLower(strings.TrimSpace(outcome.Recommendation))

	if (status == "clear" || recommendation == "approved") && profile.DocumentsVerified && profile.InterviewCompleted {
		decision.Matched = append(decision.Matched, ActionApprove)
		decision.Action = ActionApprove
		decision.OnboardingStatus = OnboardingApproved
		decision.AccountStatus = AccountActive
	}

	if status == "consider" || recommendation == "review_required" {
		decision.Matched = append(decision.Matched, ActionReview)
		decision.Action = ActionReview
		decision.OnboardingStatus = OnboardingInReview
		decision.AccountStatus = profile.AccountStatus
	}

	if status == "suspended" || recommendation == "rejected" {
		decision.Matched = append(decision.Matched, ActionReject)
		decision.Action = ActionReject
		decision.OnboardingStatus = OnboardingRejected
		decision.AccountStatus = AccountSuspended
	}

	return decision
}

// Conflicted reports whether more than one guard matched the same outcome.
func (d Decision) Conflicted() bool {
	return len(d.Matched) > 1
}
