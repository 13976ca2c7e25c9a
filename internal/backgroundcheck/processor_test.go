package backgroundcheck

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/handyhub/platform/internal/events"
	"github.com/handyhub/platform/internal/professionals"
)

type stubProvider struct {
	name        string
	event       *Event
	verifyErr   error
	status      *CheckStatus
	statusErr   error
	statusPanic bool

	statusCalls int
}

func (s *stubProvider) Name() string            { return s.name }
func (s *stubProvider) SignatureHeader() string { return "X-Test-Signature" }

func (s *stubProvider) VerifyAndParse([]byte, string) (*Event, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.event, nil
}

func (s *stubProvider) GetCheckStatus(context.Context, string) (*CheckStatus, error) {
	s.statusCalls++
	if s.statusPanic {
		panic("provider client blew up")
	}
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.status, nil
}

type stubLedger struct {
	insertErr error

	inserted  []string
	completed []string
	failed    []string
	failMsgs  []string
}

func (s *stubLedger) Insert(_ context.Context, provider, eventKey string, _ []byte) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, provider+"/"+eventKey)
	return nil
}

func (s *stubLedger) MarkCompleted(_ context.Context, provider, eventKey string) error {
	s.completed = append(s.completed, provider+"/"+eventKey)
	return nil
}

func (s *stubLedger) MarkFailed(_ context.Context, provider, eventKey, errMsg string) error {
	s.failed = append(s.failed, provider+"/"+eventKey)
	s.failMsgs = append(s.failMsgs, errMsg)
	return nil
}

type statusUpdate struct {
	id, status string
}

type savedResult struct {
	id, status, recommendation string
	completedAt                *time.Time
}

type stubCheckStore struct {
	check  *Check
	getErr error

	updates []statusUpdate
	saved   *savedResult
}

func (s *stubCheckStore) GetByID(context.Context, string) (*Check, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.check, nil
}

func (s *stubCheckStore) UpdateStatus(_ context.Context, id, status string) error {
	s.updates = append(s.updates, statusUpdate{id, status})
	return nil
}

func (s *stubCheckStore) SaveResult(_ context.Context, id, status, recommendation string, _ json.RawMessage, completedAt *time.Time) error {
	s.saved = &savedResult{id, status, recommendation, completedAt}
	return nil
}

type mirrored struct {
	professionalID, status, checkID string
}

type stubDirectory struct {
	profile *professionals.Profile

	mirrors   []mirrored
	decisions []professionals.Decision
}

func (s *stubDirectory) GetByID(context.Context, string) (*professionals.Profile, error) {
	return s.profile, nil
}

func (s *stubDirectory) MirrorBackgroundCheck(_ context.Context, id, status, checkID string) error {
	s.mirrors = append(s.mirrors, mirrored{id, status, checkID})
	return nil
}

func (s *stubDirectory) ApplyDecision(_ context.Context, _ string, d professionals.Decision) error {
	s.decisions = append(s.decisions, d)
	return nil
}

type stubResultNotifier struct {
	calls      int
	lastStatus string
}

func (s *stubResultNotifier) BackgroundCheckResult(_ context.Context, _, _, _, status string) error {
	s.calls++
	s.lastStatus = status
	return nil
}

func completedFixture() (*stubProvider, *stubLedger, *stubCheckStore, *stubDirectory, *stubResultNotifier) {
	done := time.Now()
	prov := &stubProvider{
		name:  "checkr",
		event: &Event{Type: EventCheckCompleted, CheckID: "chk_1", Provider: "checkr"},
		status: &CheckStatus{
			Status:         "clear",
			Recommendation: "approved",
			RawData:        json.RawMessage(`{"status":"clear"}`),
			CompletedAt:    &done,
		},
	}
	ledger := &stubLedger{}
	checks := &stubCheckStore{check: &Check{ID: "chk_1", ProfessionalID: "pro-1", Provider: "checkr", Status: "pending"}}
	directory := &stubDirectory{profile: &professionals.Profile{
		ID:                 "pro-1",
		Name:               "Dana Fixit",
		Email:              "dana@example.com",
		OnboardingStatus:   professionals.OnboardingInReview,
		AccountStatus:      professionals.AccountActive,
		DocumentsVerified:  true,
		InterviewCompleted: true,
	}}
	notifier := &stubResultNotifier{}
	return prov, ledger, checks, directory, notifier
}

func newTestProcessor(prov *stubProvider, ledger *stubLedger, checks *stubCheckStore, directory *stubDirectory, notifier *stubResultNotifier) *Processor {
	return NewProcessor([]Provider{prov}, ledger, checks, directory, notifier, nil, nil)
}

func TestIngestCompletedHappyPath(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	ack, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !ack.Received || ack.Duplicate {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	if prov.statusCalls != 1 {
		t.Fatalf("expected authoritative status fetch, got %d calls", prov.statusCalls)
	}
	if checks.saved == nil || checks.saved.status != "clear" || checks.saved.recommendation != "approved" {
		t.Fatalf("unexpected saved result: %+v", checks.saved)
	}
	if len(directory.mirrors) != 1 || directory.mirrors[0] != (mirrored{"pro-1", "clear", "chk_1"}) {
		t.Fatalf("unexpected mirror: %+v", directory.mirrors)
	}
	if len(directory.decisions) != 1 || directory.decisions[0].Action != professionals.ActionApprove {
		t.Fatalf("expected approve decision, got %+v", directory.decisions)
	}
	if notifier.calls != 1 || notifier.lastStatus != "clear" {
		t.Fatalf("expected result notification, got %+v", notifier)
	}
	if len(ledger.completed) != 1 || ledger.completed[0] != "checkr/chk_1:check.completed" {
		t.Fatalf("expected ledger finalized completed, got %v", ledger.completed)
	}
}

func TestIngestDuplicateHasNoSideEffects(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	ledger.insertErr = events.ErrDuplicateEvent
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	ack, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !ack.Received || !ack.Duplicate {
		t.Fatalf("expected duplicate ack, got %+v", ack)
	}
	if prov.statusCalls != 0 || checks.saved != nil || len(directory.mirrors) != 0 || notifier.calls != 0 {
		t.Fatal("duplicate delivery must have zero side effects")
	}
	if len(ledger.completed) != 0 || len(ledger.failed) != 0 {
		t.Fatal("duplicate delivery must not finalize the ledger")
	}
}

func TestIngestInvalidSignature(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.verifyErr = ErrSignatureInvalid
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	_, err := p.Ingest(context.Background(), []byte(`{}`), "bad", "checkr")
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	if len(ledger.inserted) != 0 {
		t.Fatal("rejected deliveries must not reach the ledger")
	}
}

func TestIngestUnknownProvider(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	_, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "nobody")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestIngestLedgerOutageProcessesAnyway(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	ledger.insertErr = errors.New("connection refused")
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	ack, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !ack.Received {
		t.Fatalf("expected ack despite ledger outage, got %+v", ack)
	}
	if checks.saved == nil {
		t.Fatal("event must be processed when the ledger is down")
	}
	if len(ledger.completed) != 0 || len(ledger.failed) != 0 {
		t.Fatal("untracked event must not be finalized")
	}
}

func TestIngestHandlerFailureFinalizesLedger(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.statusErr = errors.New("gateway timeout")
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	_, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err == nil {
		t.Fatal("expected handler error surfaced")
	}
	if len(ledger.failed) != 1 {
		t.Fatalf("expected ledger row marked failed, got %v", ledger.failed)
	}
	if len(ledger.failMsgs) != 1 || ledger.failMsgs[0] == "" {
		t.Fatal("expected failure message recorded")
	}
}

func TestIngestHandlerPanicCaptured(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.statusPanic = true
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	_, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err == nil {
		t.Fatal("expected panic converted to error")
	}
	if len(ledger.failed) != 1 {
		t.Fatalf("expected ledger finalized after panic, got %v", ledger.failed)
	}
}

func TestIngestUnknownEventTypeAcked(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.event = &Event{Type: "report.resumed", CheckID: "chk_1", Provider: "checkr"}
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	ack, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr")
	if err != nil {
		t.Fatalf("unknown types must be acked: %v", err)
	}
	if !ack.Received {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(ledger.completed) != 1 {
		t.Fatal("unknown types still finalize their ledger row")
	}
}

func TestIngestCreatedStampsInitiated(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.event = &Event{Type: EventCheckCreated, CheckID: "chk_1", Provider: "checkr"}
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	if _, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(checks.updates) != 1 || checks.updates[0] != (statusUpdate{"chk_1", "initiated"}) {
		t.Fatalf("expected initiated stamp, got %+v", checks.updates)
	}
	if prov.statusCalls != 0 {
		t.Fatal("created events must not hit the provider API")
	}
}

func TestIngestFailedMirrorsFailure(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.event = &Event{Type: EventCheckFailed, CheckID: "chk_1", Provider: "checkr"}
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	if _, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(checks.updates) != 1 || checks.updates[0] != (statusUpdate{"chk_1", "failed"}) {
		t.Fatalf("expected failed stamp, got %+v", checks.updates)
	}
	if len(directory.mirrors) != 1 || directory.mirrors[0].status != "failed" {
		t.Fatalf("expected failure mirrored, got %+v", directory.mirrors)
	}
	if len(directory.decisions) != 0 {
		t.Fatal("failed events must not drive onboarding")
	}
}

func TestIngestCompletedConsiderFlagsReview(t *testing.T) {
	prov, ledger, checks, directory, notifier := completedFixture()
	prov.status = &CheckStatus{Status: "consider", RawData: json.RawMessage(`{}`)}
	p := newTestProcessor(prov, ledger, checks, directory, notifier)

	if _, err := p.Ingest(context.Background(), []byte(`{}`), "sig", "checkr"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(directory.decisions) != 1 || directory.decisions[0].Action != professionals.ActionReview {
		t.Fatalf("expected review decision, got %+v", directory.decisions)
	}
}
