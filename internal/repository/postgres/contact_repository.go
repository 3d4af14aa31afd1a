package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
)

// ContactRepository persists campaign contacts.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs the repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// BulkInsert inserts the contact list for a campaign in one transaction.
func (r *ContactRepository) BulkInsert(ctx context.Context, campaignID uuid.UUID, contacts []domain.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO contacts
			(id, campaign_id, name, phone_number, project_name, unit_number, called, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
			ON CONFLICT (id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("contacts: prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range contacts {
			if _, err := stmt.ExecContext(ctx, c.ID, campaignID, c.Name, c.PhoneNumber, c.ProjectName, c.UnitNumber, c.CreatedAt); err != nil {
				return fmt.Errorf("contacts: insert: %w", err)
			}
		}
		return nil
	})
}

// ListByCampaign returns every contact of a campaign in insertion order.
func (r *ContactRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Contact, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, campaign_id, name, phone_number, project_name, unit_number,
		called, call_id, call_status, call_error, called_at, created_at
		FROM contacts WHERE campaign_id = $1 ORDER BY created_at ASC, id ASC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("contacts: list: %w", err)
	}
	defer rows.Close()

	var results []domain.Contact
	for rows.Next() {
		var rec contactRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("contacts: scan: %w", err)
		}
		results = append(results, rec.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contacts: rows err: %w", err)
	}

	return results, nil
}

// MarkCalled flips a contact to called with either a call id or an error.
// A contact is only marked once; a second call is a no-op on an already
// called row.
func (r *ContactRepository) MarkCalled(ctx context.Context, campaignID, contactID uuid.UUID, result repository.ContactCallResult) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contacts
		SET called = TRUE, call_id = $1, call_error = $2, called_at = $3
		WHERE campaign_id = $4 AND id = $5 AND called = FALSE`,
		result.CallID, result.Error, result.CalledAt, campaignID, contactID)
	if err != nil {
		return fmt.Errorf("contacts: mark called: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("contacts: rows affected: %w", err)
	}
	return nil
}

// SetCallStatusByCallID records the provider-reported end state on the
// contact linked to the given call.
func (r *ContactRepository) SetCallStatusByCallID(ctx context.Context, callID, status string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE contacts SET call_status = $1 WHERE call_id = $2`, status, callID); err != nil {
		return fmt.Errorf("contacts: set call status: %w", err)
	}
	return nil
}

type contactRecord struct {
	ID          uuid.UUID      `db:"id"`
	CampaignID  uuid.UUID      `db:"campaign_id"`
	Name        sql.NullString `db:"name"`
	PhoneNumber string         `db:"phone_number"`
	ProjectName sql.NullString `db:"project_name"`
	UnitNumber  sql.NullString `db:"unit_number"`
	Called      bool           `db:"called"`
	CallID      sql.NullString `db:"call_id"`
	CallStatus  sql.NullString `db:"call_status"`
	CallError   sql.NullString `db:"call_error"`
	CalledAt    sql.NullTime   `db:"called_at"`
	CreatedAt   sql.NullTime   `db:"created_at"`
}

func (r contactRecord) toDomain() domain.Contact {
	contact := domain.Contact{
		ID:          r.ID,
		CampaignID:  r.CampaignID,
		Name:        r.Name.String,
		PhoneNumber: r.PhoneNumber,
		ProjectName: r.ProjectName.String,
		UnitNumber:  r.UnitNumber.String,
		Called:      r.Called,
		CreatedAt:   r.CreatedAt.Time,
	}
	if r.CallID.Valid {
		v := r.CallID.String
		contact.CallID = &v
	}
	if r.CallStatus.Valid {
		v := r.CallStatus.String
		contact.CallStatus = &v
	}
	if r.CallError.Valid {
		v := r.CallError.String
		contact.CallError = &v
	}
	if r.CalledAt.Valid {
		t := r.CalledAt.Time
		contact.CalledAt = &t
	}
	return contact
}
