package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
)

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs a new repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, name, time_zone, campaign_date, start_time, end_time,
	assistant_id, phone_number_id, total_contacts, contacts_called, status,
	created_at, updated_at, started_at, completed_at`

// Create inserts a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	q := `INSERT INTO campaigns (
		id, name, time_zone, campaign_date, start_time, end_time,
		assistant_id, phone_number_id, total_contacts, contacts_called, status,
		created_at, updated_at, started_at, completed_at
	) VALUES (
		:id, :name, :time_zone, :campaign_date, :start_time, :end_time,
		:assistant_id, :phone_number_id, :total_contacts, :contacts_called, :status,
		:created_at, :updated_at, :started_at, :completed_at
	)`

	params := map[string]any{
		"id":              campaign.ID,
		"name":            campaign.Name,
		"time_zone":       campaign.TimeZone,
		"campaign_date":   campaign.Date,
		"start_time":      campaign.StartTime,
		"end_time":        campaign.EndTime,
		"assistant_id":    campaign.AssistantID,
		"phone_number_id": campaign.PhoneNumberID,
		"total_contacts":  campaign.TotalContacts,
		"contacts_called": campaign.ContactsCalled,
		"status":          campaign.Status,
		"created_at":      campaign.CreatedAt,
		"updated_at":      campaign.UpdatedAt,
		"started_at":      campaign.StartedAt,
		"completed_at":    campaign.CompletedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, q, params); err != nil {
		return fmt.Errorf("campaign repo: insert: %w", err)
	}

	return nil
}

// Get fetches a campaign by id.
func (r *CampaignRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	row := r.db.QueryRowxContext(ctx, q, id)
	var record campaignRecord
	if err := row.StructScan(&record); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("campaign repo: get: %w", err)
	}

	campaign := record.toDomain()
	return &campaign, nil
}

// GetStatus fetches only the lifecycle status. The runner polls this at
// every contact iteration, so it stays a single-column read.
func (r *CampaignRepository) GetStatus(ctx context.Context, id uuid.UUID) (domain.CampaignStatus, error) {
	var status string
	if err := r.db.QueryRowxContext(ctx, `SELECT status FROM campaigns WHERE id = $1`, id).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("campaign repo: get status: %w", err)
	}
	return domain.CampaignStatus(status), nil
}

// List returns campaigns with keyset pagination.
func (r *CampaignRepository) List(ctx context.Context, afterID *uuid.UUID, limit int) ([]*domain.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sqlx.Rows
	var err error
	if afterID != nil {
		rows, err = r.db.QueryxContext(ctx, `SELECT `+campaignColumns+`
			FROM campaigns WHERE id > $1 ORDER BY id ASC LIMIT $2`, *afterID, limit)
	} else {
		rows, err = r.db.QueryxContext(ctx, `SELECT `+campaignColumns+`
			FROM campaigns ORDER BY id ASC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("campaign repo: list: %w", err)
	}
	defer rows.Close()

	var results []*domain.Campaign
	for rows.Next() {
		var record campaignRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("campaign repo: scan: %w", err)
		}
		campaign := record.toDomain()
		results = append(results, &campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign repo: rows err: %w", err)
	}

	return results, nil
}

// UpdateStatus updates campaign status.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("campaign repo: update status: %w", err)
	}
	return checkAffected(res)
}

// MarkInProgress transitions a campaign into the running state.
func (r *CampaignRepository) MarkInProgress(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaigns SET status = $1, started_at = $2, updated_at = NOW() WHERE id = $3`,
		domain.CampaignStatusInProgress, startedAt, id)
	if err != nil {
		return fmt.Errorf("campaign repo: mark in progress: %w", err)
	}
	return checkAffected(res)
}

// MarkCompleted transitions a campaign into the completed state unless an
// operator already ended it.
func (r *CampaignRepository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaigns SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status <> $4`,
		domain.CampaignStatusCompleted, completedAt, id, domain.CampaignStatusEnded)
	if err != nil {
		return fmt.Errorf("campaign repo: mark completed: %w", err)
	}
	// Zero rows here means the campaign was externally ended mid-run, which
	// is a valid terminal state, not a missing row.
	_, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("campaign repo: rows affected: %w", err)
	}
	return nil
}

// IncrementContactsCalled bumps the dispatched-contact counter by one.
func (r *CampaignRepository) IncrementContactsCalled(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE campaigns SET contacts_called = contacts_called + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("campaign repo: increment contacts called: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("campaign repo: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type campaignRecord struct {
	ID             uuid.UUID    `db:"id"`
	Name           string       `db:"name"`
	TimeZone       string       `db:"time_zone"`
	Date           string       `db:"campaign_date"`
	StartTime      string       `db:"start_time"`
	EndTime        string       `db:"end_time"`
	AssistantID    string       `db:"assistant_id"`
	PhoneNumberID  string       `db:"phone_number_id"`
	TotalContacts  int          `db:"total_contacts"`
	ContactsCalled int          `db:"contacts_called"`
	Status         string       `db:"status"`
	CreatedAt      sql.NullTime `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
	StartedAt      sql.NullTime `db:"started_at"`
	CompletedAt    sql.NullTime `db:"completed_at"`
}

func (r campaignRecord) toDomain() domain.Campaign {
	campaign := domain.Campaign{
		ID:             r.ID,
		Name:           r.Name,
		TimeZone:       r.TimeZone,
		Date:           r.Date,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		AssistantID:    r.AssistantID,
		PhoneNumberID:  r.PhoneNumberID,
		TotalContacts:  r.TotalContacts,
		ContactsCalled: r.ContactsCalled,
		Status:         domain.CampaignStatus(r.Status),
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
	if r.StartedAt.Valid {
		t := r.StartedAt.Time
		campaign.StartedAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		campaign.CompletedAt = &t
	}
	return campaign
}
