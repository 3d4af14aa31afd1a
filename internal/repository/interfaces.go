package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = apperrors.ErrConflict
)

// CampaignRepository manages campaign persistence.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	GetStatus(ctx context.Context, id uuid.UUID) (domain.CampaignStatus, error)
	List(ctx context.Context, afterID *uuid.UUID, limit int) ([]*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error
	MarkInProgress(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	IncrementContactsCalled(ctx context.Context, id uuid.UUID) error
}

// ContactRepository stores campaign contacts.
type ContactRepository interface {
	BulkInsert(ctx context.Context, campaignID uuid.UUID, contacts []domain.Contact) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Contact, error)
	MarkCalled(ctx context.Context, campaignID, contactID uuid.UUID, result ContactCallResult) error
	SetCallStatusByCallID(ctx context.Context, callID, status string) error
}

// ContactCallResult records the outcome of one dispatch attempt for a
// contact: either a provider call id or an error string, never both.
type ContactCallResult struct {
	CallID   *string
	Error    *string
	CalledAt time.Time
}

// CallReportStore persists end-of-call reports.
type CallReportStore interface {
	Save(ctx context.Context, report *domain.CallReport) error
	Get(ctx context.Context, callID string) (*domain.CallReport, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int, pagingState []byte) ([]domain.CallReport, []byte, error)
}
