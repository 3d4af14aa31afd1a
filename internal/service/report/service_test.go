package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

type stubStore struct {
	lastLimit int
	lastState []byte
	next      []byte
}

func (s *stubStore) Save(context.Context, *domain.CallReport) error { return nil }

func (s *stubStore) Get(_ context.Context, callID string) (*domain.CallReport, error) {
	if callID == "missing" {
		return nil, repository.ErrNotFound
	}
	return &domain.CallReport{CallID: callID}, nil
}

func (s *stubStore) ListByCampaign(_ context.Context, _ string, limit int, state []byte) ([]domain.CallReport, []byte, error) {
	s.lastLimit = limit
	s.lastState = state
	return []domain.CallReport{{CallID: "call_1"}}, s.next, nil
}

type stubCampaigns struct{ id uuid.UUID }

func (s *stubCampaigns) Create(context.Context, *domain.Campaign) error { return nil }

func (s *stubCampaigns) Get(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if id != s.id {
		return nil, repository.ErrNotFound
	}
	return &domain.Campaign{ID: id}, nil
}

func (s *stubCampaigns) GetStatus(context.Context, uuid.UUID) (domain.CampaignStatus, error) {
	return domain.CampaignStatusActive, nil
}

func (s *stubCampaigns) List(context.Context, *uuid.UUID, int) ([]*domain.Campaign, error) {
	return nil, nil
}

func (s *stubCampaigns) UpdateStatus(context.Context, uuid.UUID, domain.CampaignStatus) error {
	return nil
}

func (s *stubCampaigns) MarkInProgress(context.Context, uuid.UUID, time.Time) error { return nil }
func (s *stubCampaigns) MarkCompleted(context.Context, uuid.UUID, time.Time) error  { return nil }
func (s *stubCampaigns) IncrementContactsCalled(context.Context, uuid.UUID) error   { return nil }

func TestListByCampaignPaging(t *testing.T) {
	campaignID := uuid.New()
	store := &stubStore{next: []byte{0x01, 0x02}}
	svc := NewService(store, &stubCampaigns{id: campaignID})

	page, err := svc.ListByCampaign(context.Background(), campaignID, 25, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lastLimit != 25 {
		t.Fatalf("expected limit passed through, got %d", store.lastLimit)
	}
	if page.NextToken == "" {
		t.Fatal("expected a continuation token when more pages remain")
	}

	// The token round-trips back into the same paging state.
	if _, err := svc.ListByCampaign(context.Background(), campaignID, 25, page.NextToken); err != nil {
		t.Fatalf("list with token: %v", err)
	}
	if string(store.lastState) != string([]byte{0x01, 0x02}) {
		t.Fatalf("expected decoded paging state, got %v", store.lastState)
	}
}

func TestListByCampaignDefaultsLimit(t *testing.T) {
	campaignID := uuid.New()
	store := &stubStore{}
	svc := NewService(store, &stubCampaigns{id: campaignID})

	if _, err := svc.ListByCampaign(context.Background(), campaignID, 0, ""); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lastLimit != defaultPageSize {
		t.Fatalf("expected default limit %d, got %d", defaultPageSize, store.lastLimit)
	}
}

func TestListByCampaignRejectsBadToken(t *testing.T) {
	campaignID := uuid.New()
	svc := NewService(&stubStore{}, &stubCampaigns{id: campaignID})

	_, err := svc.ListByCampaign(context.Background(), campaignID, 10, "not!!base64")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListByCampaignUnknownCampaign(t *testing.T) {
	svc := NewService(&stubStore{}, &stubCampaigns{id: uuid.New()})

	_, err := svc.ListByCampaign(context.Background(), uuid.New(), 10, "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetRequiresCallID(t *testing.T) {
	svc := NewService(&stubStore{}, &stubCampaigns{})
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
