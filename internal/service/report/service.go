package report

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

const defaultPageSize = 50

// Service reads end-of-call reports for the API.
type Service struct {
	store     repository.CallReportStore
	campaigns repository.CampaignRepository
}

// NewService constructs a report service.
func NewService(store repository.CallReportStore, campaigns repository.CampaignRepository) *Service {
	return &Service{store: store, campaigns: campaigns}
}

// Page is one page of call reports with an opaque continuation token.
type Page struct {
	Reports   []domain.CallReport
	NextToken string
}

// Get fetches one call report by provider call id.
func (s *Service) Get(ctx context.Context, callID string) (*domain.CallReport, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", apperrors.ErrValidation)
	}
	return s.store.Get(ctx, callID)
}

// ListByCampaign returns a page of the campaign's call reports. The token
// is an opaque cursor; an empty token starts from the beginning.
func (s *Service) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, token string) (*Page, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = defaultPageSize
	}

	state, err := decodeToken(token)
	if err != nil {
		return nil, err
	}

	reports, next, err := s.store.ListByCampaign(ctx, campaignID.String(), limit, state)
	if err != nil {
		return nil, fmt.Errorf("report service: list reports: %w", err)
	}

	return &Page{Reports: reports, NextToken: encodeToken(next)}, nil
}

// Paging tokens are the storage paging state, URL-safe base64 encoded so
// they can travel in query strings.

func encodeToken(state []byte) string {
	if len(state) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(state)
}

func decodeToken(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	state, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed paging token", apperrors.ErrValidation)
	}
	return state, nil
}
