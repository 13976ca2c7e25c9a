package backgroundcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/handyhub/platform/internal/events"
	"github.com/handyhub/platform/internal/observability/metrics"
	"github.com/handyhub/platform/internal/professionals"
	"github.com/handyhub/platform/pkg/logging"
)

type eventLedger interface {
	Insert(ctx context.Context, provider, eventKey string, payload []byte) error
	MarkCompleted(ctx context.Context, provider, eventKey string) error
	MarkFailed(ctx context.Context, provider, eventKey, errMsg string) error
}

type checkStore interface {
	GetByID(ctx context.Context, id string) (*Check, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SaveResult(ctx context.Context, id, status, recommendation string, rawData json.RawMessage, completedAt *time.Time) error
}

type professionalDirectory interface {
	GetByID(ctx context.Context, id string) (*professionals.Profile, error)
	MirrorBackgroundCheck(ctx context.Context, id, status, checkID string) error
	ApplyDecision(ctx context.Context, id string, decision professionals.Decision) error
}

// ResultNotifier delivers the check outcome to the professional. Best-effort.
type ResultNotifier interface {
	BackgroundCheckResult(ctx context.Context, professionalID, email, name, status string) error
}

// Ack is the ingestion outcome reported back to the provider.
type Ack struct {
	Received  bool
	Duplicate bool
}

// Processor ingests provider webhooks: verify, dedupe against the ledger,
// dispatch to the typed handler and finalize the ledger row.
type Processor struct {
	providers map[string]Provider
	ledger    eventLedger
	checks    checkStore
	directory professionalDirectory
	notifier  ResultNotifier
	metrics   *metrics.WebhookMetrics
	logger    *logging.Logger
}

func NewProcessor(providers []Provider, ledger eventLedger, checks checkStore, directory professionalDirectory, notifier ResultNotifier, m *metrics.WebhookMetrics, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Processor{
		providers: byName,
		ledger:    ledger,
		checks:    checks,
		directory: directory,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.Component("backgroundcheck"),
	}
}

// Provider returns the configured client for a provider name.
func (p *Processor) Provider(name string) (Provider, bool) {
	prov, ok := p.providers[name]
	return prov, ok
}

// Ingest processes one raw webhook delivery. Exactly-once side effects are
// guaranteed by the ledger insert: a duplicate delivery is acked with zero
// side effects. A handler failure finalizes the ledger row as failed and
// surfaces the error so the provider retries; the failed row stays in place,
// so the retry is absorbed as a duplicate rather than re-run.
func (p *Processor) Ingest(ctx context.Context, rawBody []byte, signature, providerName string) (Ack, error) {
	prov, ok := p.providers[providerName]
	if !ok {
		return Ack{}, ErrUnknownProvider
	}

	evt, err := prov.VerifyAndParse(rawBody, signature)
	if err != nil {
		p.metrics.ObserveEvent(providerName, "unknown", "rejected")
		return Ack{}, err
	}

	eventKey := evt.CheckID + ":" + evt.Type

	tracked := true
	switch err := p.ledger.Insert(ctx, providerName, eventKey, rawBody); {
	case err == nil:
	case errors.Is(err, events.ErrDuplicateEvent):
		p.metrics.ObserveDuplicate(providerName)
		p.metrics.ObserveEvent(providerName, evt.Type, "duplicate")
		p.logger.Info("duplicate webhook delivery absorbed",
			"provider", providerName, "event_key", eventKey)
		return Ack{Received: true, Duplicate: true}, nil
	default:
		// Availability over audit: process the event even when the ledger
		// is unavailable, at the cost of dedup for this delivery.
		tracked = false
		p.logger.Error("webhook ledger insert failed, processing without dedup",
			"provider", providerName, "event_key", eventKey, "error", err)
	}

	handlerErr := p.dispatch(ctx, evt)

	if tracked {
		if handlerErr != nil {
			if err := p.ledger.MarkFailed(ctx, providerName, eventKey, handlerErr.Error()); err != nil {
				p.logger.Error("webhook ledger finalize failed",
					"provider", providerName, "event_key", eventKey, "error", err)
			}
		} else {
			if err := p.ledger.MarkCompleted(ctx, providerName, eventKey); err != nil {
				p.logger.Error("webhook ledger finalize failed",
					"provider", providerName, "event_key", eventKey, "error", err)
			}
		}
	}

	if handlerErr != nil {
		p.metrics.ObserveEvent(providerName, evt.Type, "failed")
		return Ack{}, handlerErr
	}
	p.metrics.ObserveEvent(providerName, evt.Type, "completed")
	return Ack{Received: true}, nil
}

// dispatch routes the event to its typed handler, converting panics into
// errors so the ledger row is always finalized.
func (p *Processor) dispatch(ctx context.Context, evt *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backgroundcheck: handler panic: %v", r)
		}
	}()

	switch evt.Type {
	case EventCheckCreated:
		return p.handleCreated(ctx, evt)
	case EventCheckCompleted:
		return p.handleCompleted(ctx, evt)
	case EventCheckUpdated:
		return p.handleUpdated(ctx, evt)
	case EventCheckFailed:
		return p.handleFailed(ctx, evt)
	default:
		p.logger.Warn("unhandled webhook event type",
			"provider", evt.Provider, "type", evt.Type, "check_id", evt.CheckID)
		return nil
	}
}

func (p *Processor) handleCreated(ctx context.Context, evt *Event) error {
	if err := p.checks.UpdateStatus(ctx, evt.CheckID, "initiated"); err != nil {
		return fmt.Errorf("backgroundcheck: stamp initiated: %w", err)
	}
	return nil
}

// handleCompleted treats the webhook as a pointer: the authoritative outcome
// is re-fetched from the provider API before anything is persisted.
func (p *Processor) handleCompleted(ctx context.Context, evt *Event) error {
	prov := p.providers[evt.Provider]

	status, err := prov.GetCheckStatus(ctx, evt.CheckID)
	if err != nil {
		return fmt.Errorf("backgroundcheck: fetch authoritative status: %w", err)
	}

	check, err := p.checks.GetByID(ctx, evt.CheckID)
	if err != nil {
		return err
	}

	if err := p.checks.SaveResult(ctx, check.ID, status.Status, status.Recommendation, status.RawData, status.CompletedAt); err != nil {
		return err
	}

	if err := p.directory.MirrorBackgroundCheck(ctx, check.ProfessionalID, status.Status, check.ID); err != nil {
		return fmt.Errorf("backgroundcheck: mirror to profile: %w", err)
	}

	profile, err := p.directory.GetByID(ctx, check.ProfessionalID)
	if err != nil {
		return fmt.Errorf("backgroundcheck: load profile: %w", err)
	}

	outcome := professionals.CheckOutcome{
		Status:         status.Status,
		Recommendation: status.Recommendation,
	}
	decision := professionals.Evaluate(outcome, *profile)
	if decision.Conflicted() {
		p.metrics.ObserveGuardConflict()
		p.logger.Error("check outcome matched multiple onboarding guards",
			"professional_id", profile.ID,
			"check_id", check.ID,
			"status", status.Status,
			"recommendation", status.Recommendation,
			"matched", decision.Matched)
	}
	if err := p.directory.ApplyDecision(ctx, profile.ID, decision); err != nil {
		return fmt.Errorf("backgroundcheck: apply onboarding decision: %w", err)
	}

	if p.notifier != nil {
		if err := p.notifier.BackgroundCheckResult(ctx, profile.ID, profile.Email, profile.Name, status.Status); err != nil {
			p.logger.Warn("check result notification enqueue failed",
				"professional_id", profile.ID, "error", err)
		}
	}

	return nil
}

// handleUpdated mirrors the interim provider state onto check and profile.
// No onboarding action is taken before completion.
func (p *Processor) handleUpdated(ctx context.Context, evt *Event) error {
	prov := p.providers[evt.Provider]

	status, err := prov.GetCheckStatus(ctx, evt.CheckID)
	if err != nil {
		return fmt.Errorf("backgroundcheck: fetch interim status: %w", err)
	}

	check, err := p.checks.GetByID(ctx, evt.CheckID)
	if err != nil {
		return err
	}
	if err := p.checks.UpdateStatus(ctx, check.ID, status.Status); err != nil {
		return err
	}
	if err := p.directory.MirrorBackgroundCheck(ctx, check.ProfessionalID, status.Status, check.ID); err != nil {
		return fmt.Errorf("backgroundcheck: mirror to profile: %w", err)
	}
	return nil
}

func (p *Processor) handleFailed(ctx context.Context, evt *Event) error {
	check, err := p.checks.GetByID(ctx, evt.CheckID)
	if err != nil {
		return err
	}
	if err := p.checks.UpdateStatus(ctx, check.ID, "failed"); err != nil {
		return err
	}
	if err := p.directory.MirrorBackgroundCheck(ctx, check.ProfessionalID, "failed", check.ID); err != nil {
		return fmt.Errorf("backgroundcheck: mirror to profile: %w", err)
	}
	return nil
}
