package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/pkg/logger"
)

// TriggerHandle identifies a registered one-shot trigger.
type TriggerHandle string

// TriggerRegistry registers one-shot callbacks bound to absolute instants.
// Implementations are injected so schedulers can be tested with a fake.
type TriggerRegistry interface {
	RegisterOnce(fireAt time.Time, fn func()) (TriggerHandle, error)
	Cancel(handle TriggerHandle)
}

// TimerRegistry is the in-process TriggerRegistry backed by time.AfterFunc.
// Registered triggers do not survive a process restart; the registration
// log line is the operator's cue to re-submit after a restart.
type TimerRegistry struct {
	logger *logger.Logger

	mu     sync.Mutex
	timers map[TriggerHandle]*time.Timer
	closed bool
}

// NewTimerRegistry constructs an empty registry.
func NewTimerRegistry(lg *logger.Logger) *TimerRegistry {
	return &TimerRegistry{
		logger: lg,
		timers: make(map[TriggerHandle]*time.Timer),
	}
}

// RegisterOnce schedules fn to run once at fireAt. Instants in the past
// fire immediately.
func (r *TimerRegistry) RegisterOnce(fireAt time.Time, fn func()) (TriggerHandle, error) {
	if fn == nil {
		return "", fmt.Errorf("trigger registry: nil callback")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", fmt.Errorf("trigger registry: closed")
	}

	handle := TriggerHandle(uuid.NewString())
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	r.timers[handle] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, handle)
		r.mu.Unlock()
		fn()
	})

	r.logger.Info("trigger registered",
		zap.String("handle", string(handle)),
		zap.Time("fire_at", fireAt.UTC()),
		zap.Duration("in", delay))

	return handle, nil
}

// Cancel stops the trigger if it has not fired yet.
func (r *TimerRegistry) Cancel(handle TriggerHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[handle]; ok {
		t.Stop()
		delete(r.timers, handle)
	}
}

// Close cancels all pending triggers and rejects further registrations.
func (r *TimerRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for handle, t := range r.timers {
		t.Stop()
		delete(r.timers, handle)
	}
}
