package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/dialer"
	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	"github.com/acme/voice-campaign-manager/pkg/logger"
)

// Lease is a held run lock, released when the run finishes.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker guards against two concurrent runs of the same campaign.
type Locker interface {
	Acquire(ctx context.Context, campaignID uuid.UUID) (Lease, bool, error)
}

// Runner executes a campaign's dispatch loop: one contact at a time, paced,
// tolerating per-contact failures.
type Runner struct {
	campaigns repository.CampaignRepository
	contacts  repository.ContactRepository
	dialer    dialer.Dialer
	pacer     Pacer
	locks     Locker
	logger    *logger.Logger

	now func() time.Time
}

// New constructs a runner.
func New(
	campaigns repository.CampaignRepository,
	contacts repository.ContactRepository,
	d dialer.Dialer,
	pacer Pacer,
	locks Locker,
	lg *logger.Logger,
) *Runner {
	return &Runner{
		campaigns: campaigns,
		contacts:  contacts,
		dialer:    d,
		pacer:     pacer,
		locks:     locks,
		logger:    lg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run dispatches every not-yet-called contact of the campaign, strictly one
// at a time. A single contact's failure never aborts the run. The campaign
// terminates `completed`, unless an operator set it `ended` mid-run, which
// the loop treats as a cooperative stop and never overwrites.
//
// Campaign-status writes are fatal to the run; per-contact writes are
// logged and skipped over.
func (r *Runner) Run(ctx context.Context, campaignID uuid.UUID) error {
	tracer := otel.Tracer("voicecampaign.runner")
	ctx, span := tracer.Start(ctx, "campaign.run", trace.WithAttributes(
		attribute.String("campaign.id", campaignID.String()),
	))
	defer span.End()

	lease, acquired, err := r.locks.Acquire(ctx, campaignID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: acquire run lock: %w", err)
	}
	if !acquired {
		r.logger.Warn("runner: campaign run already active, skipping",
			zap.String("campaign_id", campaignID.String()))
		return nil
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			r.logger.Warn("runner: release run lock", zap.Error(err),
				zap.String("campaign_id", campaignID.String()))
		}
	}()

	campaign, err := r.campaigns.Get(ctx, campaignID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: load campaign: %w", err)
	}
	if campaign.Status == domain.CampaignStatusEnded {
		r.logger.Info("runner: campaign already ended, nothing to do",
			zap.String("campaign_id", campaignID.String()))
		return nil
	}

	if err := r.campaigns.MarkInProgress(ctx, campaignID, r.now()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: mark in progress: %w", err)
	}

	contacts, err := r.contacts.ListByCampaign(ctx, campaignID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: list contacts: %w", err)
	}

	pending := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if !c.Called {
			pending = append(pending, c)
		}
	}
	span.SetAttributes(attribute.Int("contacts.total", len(contacts)), attribute.Int("contacts.pending", len(pending)))
	r.logger.Info("runner: campaign run started",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("total_contacts", len(contacts)),
		zap.Int("pending_contacts", len(pending)))

	r.pacer.Reset()
	dispatched := 0

	for i, contact := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		stopped, err := r.stoppedExternally(ctx, campaignID)
		if err != nil {
			// A failed status poll must not kill the run; the next
			// iteration polls again.
			r.logger.Error("runner: status poll failed", zap.Error(err),
				zap.String("campaign_id", campaignID.String()))
		} else if stopped {
			r.logger.Info("runner: campaign ended by operator, stopping run",
				zap.String("campaign_id", campaignID.String()),
				zap.Int("dispatched", dispatched))
			return nil
		}

		if r.dispatch(ctx, campaign, contact) {
			dispatched++
		}

		if i < len(pending)-1 {
			if err := r.pacer.Pause(ctx); err != nil {
				return err
			}
		}
	}

	if err := r.campaigns.MarkCompleted(ctx, campaignID, r.now()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: mark completed: %w", err)
	}

	r.logger.Info("runner: campaign completed",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("dispatched", dispatched))
	return nil
}

// dispatch places one call and records the outcome on the contact. Reports
// true when the provider accepted the call.
func (r *Runner) dispatch(ctx context.Context, campaign *domain.Campaign, contact domain.Contact) bool {
	call, callErr := r.dialer.PlaceCall(ctx, dialer.PlaceCallInput{
		PhoneNumber:   contact.PhoneNumber,
		Name:          contact.Name,
		AssistantID:   campaign.AssistantID,
		PhoneNumberID: campaign.PhoneNumberID,
		Metadata: map[string]any{
			"campaign_id": campaign.ID.String(),
			"contact_id":  contact.ID.String(),
		},
	})

	calledAt := r.now()

	if callErr != nil {
		r.logger.Error("runner: call placement failed",
			zap.Error(callErr),
			zap.String("campaign_id", campaign.ID.String()),
			zap.String("contact_id", contact.ID.String()))
		msg := callErr.Error()
		if err := r.contacts.MarkCalled(ctx, campaign.ID, contact.ID, repository.ContactCallResult{
			Error:    &msg,
			CalledAt: calledAt,
		}); err != nil {
			r.logger.Error("runner: mark contact failed", zap.Error(err),
				zap.String("contact_id", contact.ID.String()))
		}
		return false
	}

	callID := call.ID
	if err := r.contacts.MarkCalled(ctx, campaign.ID, contact.ID, repository.ContactCallResult{
		CallID:   &callID,
		CalledAt: calledAt,
	}); err != nil {
		r.logger.Error("runner: mark contact called", zap.Error(err),
			zap.String("contact_id", contact.ID.String()))
	}
	// The contact write and this counter increment are two separate writes;
	// a reader may briefly observe one without the other.
	if err := r.campaigns.IncrementContactsCalled(ctx, campaign.ID); err != nil {
		r.logger.Error("runner: increment contacts called", zap.Error(err),
			zap.String("campaign_id", campaign.ID.String()))
	}

	r.logger.Info("runner: call dispatched",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("contact_id", contact.ID.String()),
		zap.String("call_id", callID))
	return true
}

func (r *Runner) stoppedExternally(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	status, err := r.campaigns.GetStatus(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return status == domain.CampaignStatusEnded, nil
}
