// Package triggers evaluates declarative behavior rules against live
// sessions and fires one-shot actions subject to cooldowns and per-session
// caps. Evaluation runs on four clocks: scroll events, exit-intent events
// (debounced), a 10s ticker for time-based triggers, and a 30s ticker for
// engagement-based triggers.
package triggers

import (
	"context"
	"sync"
	"time"

	"github.com/growth-engine/growth-engine/internal/engagement"
	"github.com/growth-engine/growth-engine/internal/journey"
)

const (
	timeInterval       = 10 * time.Second
	engagementInterval = 30 * time.Second
	exitIntentDebounce = 5 * time.Second
)

// sessionState is the per-session runtime state the monitor mutates.
// It is dropped with the session, resetting fire counts.
type sessionState struct {
	lastFired      map[string]time.Time
	fireCount      map[string]int
	lastExitIntent time.Time
}

// Monitor owns trigger evaluation and scheduled delayed actions. All
// scheduled work is cancelled on Stop; no timers outlive the monitor.
type Monitor struct {
	journeys   *journey.Store
	scorer     *engagement.Scorer
	classifier *engagement.Classifier
	triggers   []Trigger
	sink       ActionSink
	now        func() time.Time

	mu        sync.Mutex
	sessions  map[string]*sessionState
	timers    map[int]*time.Timer
	nextTimer int

	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorClock overrides the time source, for tests.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor returns a Monitor evaluating the given triggers for sessions
// in the journey store, dispatching fired actions to sink.
func NewMonitor(journeys *journey.Store, scorer *engagement.Scorer, classifier *engagement.Classifier, triggers []Trigger, sink ActionSink, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		journeys:   journeys,
		scorer:     scorer,
		classifier: classifier,
		triggers:   triggers,
		sink:       sink,
		now:        time.Now,
		sessions:   make(map[string]*sessionState),
		timers:     make(map[int]*time.Timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the interval clocks. Stop cancels them.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		timeTicker := time.NewTicker(timeInterval)
		defer timeTicker.Stop()
		engagementTicker := time.NewTicker(engagementInterval)
		defer engagementTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timeTicker.C:
				m.CheckAll(KindTime)
			case <-engagementTicker.C:
				m.CheckAll(KindEngagement)
			}
		}
	}()
}

// Stop cancels the interval clocks and every pending delayed action,
// then waits for the clock goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// HandleScroll evaluates scroll triggers for a session. Call it when the
// session's scroll depth changes.
func (m *Monitor) HandleScroll(sessionID string) {
	m.Check(sessionID, KindScroll)
}

// HandleExitIntent evaluates exit-intent triggers for a session. Repeat
// events within the debounce window are dropped so pointer jitter cannot
// double-fire.
func (m *Monitor) HandleExitIntent(sessionID string) {
	now := m.now()

	m.mu.Lock()
	st := m.state(sessionID)
	if !st.lastExitIntent.IsZero() && now.Sub(st.lastExitIntent) < exitIntentDebounce {
		m.mu.Unlock()
		return
	}
	st.lastExitIntent = now
	m.mu.Unlock()

	m.Check(sessionID, KindExitIntent)
}

// CheckAll evaluates triggers of one kind for every live session.
func (m *Monitor) CheckAll(kind Kind) {
	for _, sessionID := range m.journeys.SessionIDs() {
		m.Check(sessionID, kind)
	}
}

// Check evaluates triggers of one kind for a session. Unknown sessions are
// a no-op.
func (m *Monitor) Check(sessionID string, kind Kind) {
	snapshot, ok := m.journeys.Snapshot(sessionID)
	if !ok {
		return
	}
	score := m.scorer.Score(snapshot)
	level := m.classifier.Classify(score, snapshot)
	fields := FieldsFor(snapshot, level)

	for _, trigger := range m.triggers {
		if trigger.Kind != kind {
			continue
		}
		if !matchAll(trigger.Conditions, fields) {
			continue
		}
		m.fire(sessionID, trigger)
	}
}

// fire records a firing and dispatches its actions, provided the cooldown
// has elapsed and the session cap is not exhausted.
func (m *Monitor) fire(sessionID string, trigger Trigger) {
	now := m.now()

	m.mu.Lock()
	st := m.state(sessionID)
	if trigger.MaxPerSession > 0 && st.fireCount[trigger.ID] >= trigger.MaxPerSession {
		m.mu.Unlock()
		return
	}
	if last, ok := st.lastFired[trigger.ID]; ok {
		cooldown := time.Duration(trigger.CooldownMinutes) * time.Minute
		if now.Sub(last) < cooldown {
			m.mu.Unlock()
			return
		}
	}
	st.lastFired[trigger.ID] = now
	st.fireCount[trigger.ID]++
	m.mu.Unlock()

	for _, action := range trigger.Actions {
		if action.DelaySeconds > 0 {
			m.schedule(sessionID, trigger.ID, action)
			continue
		}
		m.sink.Dispatch(sessionID, trigger.ID, action)
	}
}

// schedule runs a delayed action on a tracked timer so Stop can cancel it.
func (m *Monitor) schedule(sessionID, triggerID string, action Action) {
	m.mu.Lock()
	id := m.nextTimer
	m.nextTimer++
	m.timers[id] = time.AfterFunc(time.Duration(action.DelaySeconds)*time.Second, func() {
		m.mu.Lock()
		_, live := m.timers[id]
		delete(m.timers, id)
		m.mu.Unlock()
		if live {
			m.sink.Dispatch(sessionID, triggerID, action)
		}
	})
	m.mu.Unlock()
}

// FireCount reports how many times a trigger has fired for a session.
func (m *Monitor) FireCount(sessionID, triggerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return 0
	}
	return st.fireCount[triggerID]
}

// EndSession drops a session's runtime state, resetting counts and
// cooldowns.
func (m *Monitor) EndSession(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// state returns the session's runtime record, creating it if needed.
// Callers must hold m.mu.
func (m *Monitor) state(sessionID string) *sessionState {
	st, ok := m.sessions[sessionID]
	if !ok {
		st = &sessionState{
			lastFired: make(map[string]time.Time),
			fireCount: make(map[string]int),
		}
		m.sessions[sessionID] = st
	}
	return st
}
