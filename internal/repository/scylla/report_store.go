package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
)

// ReportStore persists end-of-call reports in Scylla. Reports are written
// to two tables: reports_by_call for point lookups and reports_by_campaign,
// bucketed by day, for campaign reporting.
type ReportStore struct {
	session *gocql.Session
}

// NewReportStore creates a new report store.
func NewReportStore(session *gocql.Session) *ReportStore {
	return &ReportStore{session: session}
}

// Save writes a report to both tables.
func (s *ReportStore) Save(ctx context.Context, report *domain.CallReport) error {
	if err := s.session.Query(`INSERT INTO reports_by_call
		(call_id, campaign_id, phone_number, started_at, ended_at, duration_ms, ended_reason, recording_url, transcript, payload, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.CallID, report.CampaignID, report.PhoneNumber, report.StartedAt, report.EndedAt,
		report.DurationMs, report.EndedReason, report.RecordingURL, report.Transcript, report.Payload, report.ReceivedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("report store: insert reports_by_call: %w", err)
	}

	if report.CampaignID == "" {
		return nil
	}

	bucket := bucketDate(report.ReceivedAt)
	if err := s.session.Query(`INSERT INTO reports_by_campaign
		(campaign_id, bucket, call_id, phone_number, started_at, ended_at, duration_ms, ended_reason, recording_url, transcript, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.CampaignID, bucket, report.CallID, report.PhoneNumber, report.StartedAt, report.EndedAt,
		report.DurationMs, report.EndedReason, report.RecordingURL, report.Transcript, report.ReceivedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("report store: insert reports_by_campaign: %w", err)
	}

	return nil
}

// Get retrieves a report by provider call id.
func (s *ReportStore) Get(ctx context.Context, callID string) (*domain.CallReport, error) {
	var report domain.CallReport
	err := s.session.Query(`SELECT call_id, campaign_id, phone_number, started_at, ended_at, duration_ms, ended_reason, recording_url, transcript, payload, received_at
		FROM reports_by_call WHERE call_id = ?`, callID).WithContext(ctx).Scan(
		&report.CallID, &report.CampaignID, &report.PhoneNumber, &report.StartedAt, &report.EndedAt,
		&report.DurationMs, &report.EndedReason, &report.RecordingURL, &report.Transcript, &report.Payload, &report.ReceivedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report store: get: %w", err)
	}
	return &report, nil
}

// ListByCampaign lists reports for a campaign with Scylla paging state.
func (s *ReportStore) ListByCampaign(ctx context.Context, campaignID string, limit int, pagingState []byte) ([]domain.CallReport, []byte, error) {
	if limit <= 0 {
		limit = 100
	}

	query := s.session.Query(`SELECT call_id, phone_number, started_at, ended_at, duration_ms, ended_reason, recording_url, transcript, received_at
		FROM reports_by_campaign WHERE campaign_id = ?`, campaignID).WithContext(ctx)
	query = query.PageSize(limit)
	if len(pagingState) > 0 {
		query = query.PageState(pagingState)
	}

	iter := query.Iter()
	reports := make([]domain.CallReport, 0, limit)

	var report domain.CallReport
	for iter.Scan(&report.CallID, &report.PhoneNumber, &report.StartedAt, &report.EndedAt,
		&report.DurationMs, &report.EndedReason, &report.RecordingURL, &report.Transcript, &report.ReceivedAt) {
		report.CampaignID = campaignID
		reports = append(reports, report)
		report = domain.CallReport{}
	}

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("report store: iter close: %w", err)
	}

	return reports, iter.PageState(), nil
}

func bucketDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
