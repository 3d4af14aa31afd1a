package campaign

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

// Service orchestrates campaign lifecycle operations.
type Service struct {
	repo     repository.CampaignRepository
	contacts repository.ContactRepository
}

// NewService constructs a campaign service.
func NewService(repo repository.CampaignRepository, contacts repository.ContactRepository) *Service {
	return &Service{repo: repo, contacts: contacts}
}

// CreateCampaignInput captures campaign creation parameters.
type CreateCampaignInput struct {
	Name          string
	TimeZone      string
	Date          string
	StartTime     string
	EndTime       string
	AssistantID   string
	PhoneNumberID string
	Contacts      []ContactInput
}

// ContactInput expresses one contact to call.
type ContactInput struct {
	Name        string
	PhoneNumber string
	ProjectName string
	UnitNumber  string
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Create provisions a new campaign and bulk-inserts its contacts.
func (s *Service) Create(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:            uuid.New(),
		Name:          input.Name,
		TimeZone:      input.TimeZone,
		Date:          input.Date,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		AssistantID:   input.AssistantID,
		PhoneNumberID: input.PhoneNumberID,
		TotalContacts: len(input.Contacts),
		Status:        domain.CampaignStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("campaign service: create campaign: %w", err)
	}

	if len(input.Contacts) > 0 {
		records := make([]domain.Contact, 0, len(input.Contacts))
		for _, c := range input.Contacts {
			records = append(records, domain.Contact{
				ID:          uuid.New(),
				CampaignID:  campaign.ID,
				Name:        c.Name,
				PhoneNumber: c.PhoneNumber,
				ProjectName: c.ProjectName,
				UnitNumber:  c.UnitNumber,
				CreatedAt:   now,
			})
		}
		if err := s.contacts.BulkInsert(ctx, campaign.ID, records); err != nil {
			return nil, fmt.Errorf("campaign service: store contacts: %w", err)
		}
	}

	return campaign, nil
}

// Get retrieves a campaign by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns, keyset-paged by id.
func (s *Service) List(ctx context.Context, afterID *uuid.UUID, limit int) ([]*domain.Campaign, error) {
	return s.repo.List(ctx, afterID, limit)
}

// Contacts returns all contacts of a campaign.
func (s *Service) Contacts(ctx context.Context, campaignID uuid.UUID) ([]domain.Contact, error) {
	if _, err := s.repo.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.contacts.ListByCampaign(ctx, campaignID)
}

// End force-stops a campaign. A running dispatch loop observes the status
// on its next iteration and stops without placing further calls.
func (s *Service) End(ctx context.Context, id uuid.UUID) error {
	campaign, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status == domain.CampaignStatusEnded {
		return nil
	}
	if campaign.Status == domain.CampaignStatusCompleted {
		return fmt.Errorf("%w: campaign already completed", apperrors.ErrConflict)
	}
	if err := s.repo.UpdateStatus(ctx, id, domain.CampaignStatusEnded); err != nil {
		return fmt.Errorf("campaign service: end campaign: %w", err)
	}
	return nil
}

func validateCreateInput(input CreateCampaignInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: campaign name is required", apperrors.ErrValidation)
	}
	if input.TimeZone == "" {
		return fmt.Errorf("%w: time zone is required", apperrors.ErrValidation)
	}
	if _, err := time.LoadLocation(input.TimeZone); err != nil {
		return fmt.Errorf("%w: invalid time zone %s: %v", apperrors.ErrValidation, input.TimeZone, err)
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		return fmt.Errorf("%w: invalid campaign date %q", apperrors.ErrValidation, input.Date)
	}
	if _, err := time.Parse("15:04", input.StartTime); err != nil {
		return fmt.Errorf("%w: invalid start time %q", apperrors.ErrValidation, input.StartTime)
	}
	if _, err := time.Parse("15:04", input.EndTime); err != nil {
		return fmt.Errorf("%w: invalid end time %q", apperrors.ErrValidation, input.EndTime)
	}
	if input.AssistantID == "" {
		return fmt.Errorf("%w: assistant id is required", apperrors.ErrValidation)
	}
	if input.PhoneNumberID == "" {
		return fmt.Errorf("%w: phone number id is required", apperrors.ErrValidation)
	}
	for i, c := range input.Contacts {
		if !phonePattern.MatchString(c.PhoneNumber) {
			return fmt.Errorf("%w: contact %d has invalid phone number %q", apperrors.ErrValidation, i, c.PhoneNumber)
		}
	}
	return nil
}
