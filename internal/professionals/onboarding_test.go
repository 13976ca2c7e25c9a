package professionals

import "testing"

func readyProfile() Profile {
	return Profile{
		ID:                 "pro-1",
		OnboardingStatus:   OnboardingInReview,
		AccountStatus:      AccountActive,
		DocumentsVerified:  true,
		InterviewCompleted: true,
	}
}

func TestEvaluateClearAutoApproves(t *testing.T) {
	d := Evaluate(CheckOutcome{Status: "clear", Recommendation: "approved"}, readyProfile())
	if d.Action != ActionApprove {
		t.Fatalf("expected approve, got %s", d.Action)
	}
	if d.OnboardingStatus != OnboardingApproved || d.AccountStatus != AccountActive {
		t.Fatalf("unexpected statuses: %s / %s", d.OnboardingStatus, d.AccountStatus)
	}
	if d.Conflicted() {
		t.Fatal("single guard should not conflict")
	}
}

func TestEvaluateClearWithoutDocumentsLeavesUntouched(t *testing.T) {
	profile := readyProfile()
	profile.DocumentsVerified = false

	d := Evaluate(CheckOutcome{Status: "clear", Recommendation: "approved"}, profile)
	if d.Action != ActionNone {
		t.Fatalf("expected no action without documents, got %s", d.Action)
	}
	if d.OnboardingStatus != OnboardingInReview {
		t.Fatalf("expected onboarding status untouched, got %s", d.OnboardingStatus)
	}
}

func TestEvaluateClearWithoutInterviewLeavesUntouched(t *testing.T) {
	profile := readyProfile()
	profile.InterviewCompleted = false

	d := Evaluate(CheckOutcome{Status: "clear"}, profile)
	if d.Action != ActionNone {
		t.Fatalf("expected no action without interview, got %s", d.Action)
	}
}

func TestEvaluateConsiderFlagsForReview(t *testing.T) {
	d := Evaluate(CheckOutcome{Status: "consider"}, readyProfile())
	if d.Action != ActionReview {
		t.Fatalf("expected review, got %s", d.Action)
	}
	if d.OnboardingStatus != OnboardingInReview {
		t.Fatalf("expected in-review, got %s", d.OnboardingStatus)
	}
	if d.AccountStatus != AccountActive {
		t.Fatalf("review must not change account status, got %s", d.AccountStatus)
	}
}

func TestEvaluateSuspendedRejects(t *testing.T) {
	d := Evaluate(CheckOutcome{Status: "suspended"}, readyProfile())
	if d.Action != ActionReject {
		t.Fatalf("expected reject, got %s", d.Action)
	}
	if d.OnboardingStatus != OnboardingRejected || d.AccountStatus != AccountSuspended {
		t.Fatalf("unexpected statuses: %s / %s", d.OnboardingStatus, d.AccountStatus)
	}
}

func TestEvaluateRecommendationRejectedWins(t *testing.T) {
	// A provider can in principle report a clear status alongside a rejected
	// recommendation: both guards match and the last one wins.
	d := Evaluate(CheckOutcome{Status: "clear", Recommendation: "rejected"}, readyProfile())
	if d.Action != ActionReject {
		t.Fatalf("expected last matching guard to win, got %s", d.Action)
	}
	if !d.Conflicted() {
		t.Fatal("expected conflict to be reported")
	}
	if len(d.Matched) != 2 {
		t.Fatalf("expected both guards recorded, got %v", d.Matched)
	}
}

func TestEvaluateTerminalStatesUntouched(t *testing.T) {
	for _, status := range []string{OnboardingApproved, OnboardingRejected} {
		profile := readyProfile()
		profile.OnboardingStatus = status

		d := Evaluate(CheckOutcome{Status: "suspended"}, profile)
		if d.Action != ActionNone {
			t.Fatalf("terminal state %s must not transition, got %s", status, d.Action)
		}
	}
}

func TestEvaluateUnknownOutcomeNoAction(t *testing.T) {
	d := Evaluate(CheckOutcome{Status: "pending", Recommendation: ""}, readyProfile())
	if d.Action != ActionNone {
		t.Fatalf("unknown outcome must not transition, got %s", d.Action)
	}
	if len(d.Matched) != 0 {
		t.Fatalf("expected no guards matched, got %v", d.Matched)
	}
}

func TestEvaluateNormalizesCase(t *testing.T) {
	d := Evaluate(CheckOutcome{Status: " Clear ", Recommendation: "APPROVED"}, readyProfile())
	if d.Action != ActionApprove {
		t.Fatalf("expected case-insensitive match, got %s", d.Action)
	}
}
