package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	"github.com/acme/voice-campaign-manager/internal/schedule"
	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
	"github.com/acme/voice-campaign-manager/pkg/logger"
)

type fakeCampaignRepo struct {
	mu       sync.Mutex
	known    map[uuid.UUID]bool
	statuses []domain.CampaignStatus
}

func (f *fakeCampaignRepo) Create(context.Context, *domain.Campaign) error { return nil }

func (f *fakeCampaignRepo) Get(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	if !f.known[id] {
		return nil, repository.ErrNotFound
	}
	return &domain.Campaign{ID: id, Status: domain.CampaignStatusActive}, nil
}

func (f *fakeCampaignRepo) GetStatus(context.Context, uuid.UUID) (domain.CampaignStatus, error) {
	return domain.CampaignStatusActive, nil
}

func (f *fakeCampaignRepo) List(context.Context, *uuid.UUID, int) ([]*domain.Campaign, error) {
	return nil, nil
}

func (f *fakeCampaignRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status domain.CampaignStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeCampaignRepo) MarkInProgress(context.Context, uuid.UUID, time.Time) error { return nil }
func (f *fakeCampaignRepo) MarkCompleted(context.Context, uuid.UUID, time.Time) error  { return nil }
func (f *fakeCampaignRepo) IncrementContactsCalled(context.Context, uuid.UUID) error   { return nil }

type registration struct {
	fireAt time.Time
	fn     func()
}

type fakeRegistry struct {
	mu            sync.Mutex
	registrations []registration
	fail          bool
}

func (f *fakeRegistry) RegisterOnce(fireAt time.Time, fn func()) (schedule.TriggerHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("registry unavailable")
	}
	f.registrations = append(f.registrations, registration{fireAt: fireAt, fn: fn})
	return schedule.TriggerHandle(uuid.NewString()), nil
}

func (f *fakeRegistry) Cancel(schedule.TriggerHandle) {}

type fakeRunner struct {
	mu   sync.Mutex
	runs []uuid.UUID
	ran  chan uuid.UUID
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan uuid.UUID, 8)}
}

func (f *fakeRunner) Run(_ context.Context, campaignID uuid.UUID) error {
	f.mu.Lock()
	f.runs = append(f.runs, campaignID)
	f.mu.Unlock()
	f.ran <- campaignID
	return nil
}

// dubaiMidMorning is 10:00 in Dubai (UTC+4, no DST) on the campaign date.
var dubaiMidMorning = time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)

func newTestScheduler(campaigns *fakeCampaignRepo, registry *fakeRegistry, runner *fakeRunner) *Scheduler {
	s := New(campaigns, registry, runner, &logger.Logger{Logger: zap.NewNop()})
	s.now = func() time.Time { return dubaiMidMorning }
	return s
}

func knownCampaign() (*fakeCampaignRepo, uuid.UUID) {
	id := uuid.New()
	return &fakeCampaignRepo{known: map[uuid.UUID]bool{id: true}}, id
}

func waitForRun(t *testing.T, runner *fakeRunner) uuid.UUID {
	t.Helper()
	select {
	case id := <-runner.ran:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for campaign run to launch")
		return uuid.Nil
	}
}

func TestScheduleStartsRunWithinWindow(t *testing.T) {
	campaigns, id := knownCampaign()
	registry := &fakeRegistry{}
	runner := newFakeRunner()
	s := newTestScheduler(campaigns, registry, runner)

	result, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: id,
		Date:       "2024-06-15",
		StartTime:  "09:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if result.Outcome != OutcomeStarted {
		t.Fatalf("expected outcome started, got %q", result.Outcome)
	}

	if got := waitForRun(t, runner); got != id {
		t.Fatalf("expected run for %s, got %s", id, got)
	}
	if len(registry.registrations) != 0 {
		t.Fatal("an immediate run must not register a trigger")
	}
	if len(campaigns.statuses) != 0 {
		t.Fatalf("an immediate run must not write a status, got %v", campaigns.statuses)
	}
}

func TestScheduleDefersBeforeWindow(t *testing.T) {
	campaigns, id := knownCampaign()
	registry := &fakeRegistry{}
	runner := newFakeRunner()
	s := newTestScheduler(campaigns, registry, runner)

	result, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: id,
		Date:       "2024-06-15",
		StartTime:  "14:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if result.Outcome != OutcomeScheduled {
		t.Fatalf("expected outcome scheduled, got %q", result.Outcome)
	}

	if len(registry.registrations) != 1 {
		t.Fatalf("expected exactly one trigger, got %d", len(registry.registrations))
	}
	wantFire := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) // 14:00 Dubai
	if !registry.registrations[0].fireAt.Equal(wantFire) {
		t.Fatalf("trigger must fire at window start %v, got %v", wantFire, registry.registrations[0].fireAt)
	}
	if result.RunAt == nil || !result.RunAt.Equal(wantFire) {
		t.Fatalf("result must carry the deferred instant, got %v", result.RunAt)
	}
	if len(runner.runs) != 0 {
		t.Fatal("a deferred campaign must not run yet")
	}

	// Firing the trigger launches the run.
	registry.registrations[0].fn()
	if got := waitForRun(t, runner); got != id {
		t.Fatalf("expected deferred run for %s, got %s", id, got)
	}
}

func TestScheduleDefersFutureDay(t *testing.T) {
	campaigns, id := knownCampaign()
	registry := &fakeRegistry{}
	runner := newFakeRunner()
	s := newTestScheduler(campaigns, registry, runner)

	result, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: id,
		Date:       "2024-06-20",
		StartTime:  "09:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if result.Outcome != OutcomeScheduled {
		t.Fatalf("expected outcome scheduled, got %q", result.Outcome)
	}
	if len(registry.registrations) != 1 {
		t.Fatalf("expected one trigger, got %d", len(registry.registrations))
	}
}

func TestScheduleEndsUnusableWindows(t *testing.T) {
	cases := []struct {
		name  string
		date  string
		start string
		end   string
	}{
		{"past day", "2024-06-10", "09:00", "18:00"},
		{"window already over today", "2024-06-15", "07:00", "09:00"},
		{"start equals end", "2024-06-15", "09:00", "09:00"},
		{"end before start", "2024-06-15", "18:00", "09:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaigns, id := knownCampaign()
			registry := &fakeRegistry{}
			runner := newFakeRunner()
			s := newTestScheduler(campaigns, registry, runner)

			result, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
				CampaignID: id,
				Date:       tc.date,
				StartTime:  tc.start,
				EndTime:    tc.end,
				TimeZone:   "Asia/Dubai",
			})
			if err != nil {
				t.Fatalf("schedule: %v", err)
			}
			if result.Outcome != OutcomeEnded {
				t.Fatalf("expected outcome ended, got %q", result.Outcome)
			}
			if len(campaigns.statuses) != 1 || campaigns.statuses[0] != domain.CampaignStatusEnded {
				t.Fatalf("expected exactly one ended write, got %v", campaigns.statuses)
			}
			if len(registry.registrations) != 0 || len(runner.runs) != 0 {
				t.Fatal("an unusable window must neither defer nor run")
			}
		})
	}
}

func TestScheduleRegistrationFailureLeavesStatusUntouched(t *testing.T) {
	campaigns, id := knownCampaign()
	registry := &fakeRegistry{fail: true}
	runner := newFakeRunner()
	s := newTestScheduler(campaigns, registry, runner)

	_, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: id,
		Date:       "2024-06-20",
		StartTime:  "09:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if err == nil {
		t.Fatal("expected registration failure to surface")
	}
	if len(campaigns.statuses) != 0 {
		t.Fatalf("a failed registration must not write a status, got %v", campaigns.statuses)
	}
}

func TestScheduleRejectsMalformedWindow(t *testing.T) {
	campaigns, id := knownCampaign()
	registry := &fakeRegistry{}
	runner := newFakeRunner()
	s := newTestScheduler(campaigns, registry, runner)

	_, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: id,
		Date:       "June 15th",
		StartTime:  "09:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(campaigns.statuses) != 0 {
		t.Fatalf("a malformed window must not write a status, got %v", campaigns.statuses)
	}
}

func TestScheduleUnknownCampaign(t *testing.T) {
	campaigns := &fakeCampaignRepo{known: map[uuid.UUID]bool{}}
	s := newTestScheduler(campaigns, &fakeRegistry{}, newFakeRunner())

	_, err := s.ScheduleOrRun(context.Background(), ScheduleRequest{
		CampaignID: uuid.New(),
		Date:       "2024-06-15",
		StartTime:  "09:00",
		EndTime:    "18:00",
		TimeZone:   "Asia/Dubai",
	})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
