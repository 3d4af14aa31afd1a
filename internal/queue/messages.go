package queue

import "time"

// ReportMessage is an end-of-call report as received from the voice
// provider's webhook, queued for persistence. CampaignID and ContactID are
// echoes of the dispatch metadata and may be empty when the provider calls
// without them.
type ReportMessage struct {
	CallID       string    `json:"call_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	ContactID    string    `json:"contact_id,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Status       string    `json:"status,omitempty"`
	EndedReason  string    `json:"ended_reason,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
	RecordingURL string    `json:"recording_url,omitempty"`
	Transcript   string    `json:"transcript,omitempty"`
	Payload      []byte    `json:"payload,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}
