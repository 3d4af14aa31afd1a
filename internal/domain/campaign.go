package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus enumerates lifecycle states of a campaign.
type CampaignStatus string

const (
	// CampaignStatusActive marks a campaign that has been created but not yet run.
	CampaignStatusActive CampaignStatus = "active"
	// CampaignStatusInProgress marks a campaign whose dispatch loop is running.
	CampaignStatusInProgress CampaignStatus = "in_progress"
	// CampaignStatusCompleted marks a campaign whose dispatch loop finished normally.
	CampaignStatusCompleted CampaignStatus = "completed"
	// CampaignStatusEnded marks a campaign that was terminated: invalid or
	// elapsed calling window, or an operator stop.
	CampaignStatusEnded CampaignStatus = "ended"
)

// Campaign models an outbound voice campaign and its calling window.
// Date is the campaign calendar date (2006-01-02); StartTime and EndTime
// are daily wall-clock bounds (15:04) interpreted in TimeZone.
type Campaign struct {
	ID             uuid.UUID
	Name           string
	TimeZone       string
	Date           string
	StartTime      string
	EndTime        string
	AssistantID    string
	PhoneNumberID  string
	TotalContacts  int
	ContactsCalled int
	Status         CampaignStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// Contact is one dialing target within a campaign. A contact is dispatched
// at most once: Called flips to true exactly once, with either a provider
// call id or an error string.
type Contact struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	Name        string
	PhoneNumber string
	ProjectName string
	UnitNumber  string
	Called      bool
	CallID      *string
	CallStatus  *string
	CallError   *string
	CalledAt    *time.Time
	CreatedAt   time.Time
}

// CallReport is the persisted end-of-call report delivered by the voice
// provider's webhook. The raw payload is kept verbatim for reporting.
type CallReport struct {
	CallID       string
	CampaignID   string
	PhoneNumber  string
	StartedAt    time.Time
	EndedAt      time.Time
	DurationMs   int64
	EndedReason  string
	RecordingURL string
	Transcript   string
	Payload      []byte
	ReceivedAt   time.Time
}
