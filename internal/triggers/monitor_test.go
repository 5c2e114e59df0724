package triggers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/growth-engine/growth-engine/internal/engagement"
	"github.com/growth-engine/growth-engine/internal/journey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu    sync.Mutex
	fired []Action
}

func (s *recordingSink) Dispatch(sessionID, triggerID string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = append(s.fired, action)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMonitor(t *testing.T, clock *fakeClock, triggers []Trigger, sink ActionSink) (*Monitor, string) {
	t.Helper()
	journeys := journey.NewStore(journey.WithClock(clock.Now))
	sessionID := journeys.StartSession("visitor-1", engagement.DeviceDesktop, false)
	monitor := NewMonitor(
		journeys,
		engagement.NewScorer(engagement.DefaultWeights()),
		engagement.NewClassifier(engagement.DefaultThresholds()),
		triggers,
		sink,
		WithMonitorClock(clock.Now),
	)
	return monitor, sessionID
}

func TestMonitor_ExitIntentFiresOncePerSession(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:            "exit-intent-capture",
		Kind:          KindExitIntent,
		Actions:       []Action{{Type: "show-modal", Params: map[string]string{"modal": "exit-offer"}}},
		MaxPerSession: 1,
	}}, sink)

	// Five rapid mouseleave events within one second.
	for i := 0; i < 5; i++ {
		monitor.HandleExitIntent(sessionID)
		clock.Advance(200 * time.Millisecond)
	}

	assert.Equal(t, 1, sink.count(), "expected exactly one fire")
	assert.Equal(t, 1, monitor.FireCount(sessionID, "exit-intent-capture"))
}

func TestMonitor_MaxPerSessionHoldsPastDebounce(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:            "exit-intent-capture",
		Kind:          KindExitIntent,
		Actions:       []Action{{Type: "show-modal"}},
		MaxPerSession: 1,
	}}, sink)

	// Spaced well past the debounce window; the session cap still holds.
	for i := 0; i < 3; i++ {
		monitor.HandleExitIntent(sessionID)
		clock.Advance(10 * time.Second)
	}

	assert.Equal(t, 1, sink.count())
}

func TestMonitor_CooldownRespected(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:              "idle-nudge",
		Kind:            KindTime,
		Actions:         []Action{{Type: "show-notification"}},
		CooldownMinutes: 30,
	}}, sink)

	monitor.Check(sessionID, KindTime)
	require.Equal(t, 1, sink.count())

	clock.Advance(29 * time.Minute)
	monitor.Check(sessionID, KindTime)
	assert.Equal(t, 1, sink.count(), "no re-fire inside cooldown")

	clock.Advance(time.Minute)
	monitor.Check(sessionID, KindTime)
	assert.Equal(t, 2, sink.count(), "re-armed after cooldown")
}

func TestMonitor_ConditionsGateFiring(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:   "deep-scroll-offer",
		Kind: KindScroll,
		Conditions: []Condition{
			{Field: "scroll_depth", Op: OpGTE, Value: 75},
		},
		Actions: []Action{{Type: "swap-cta"}},
	}}, sink)

	monitor.journeys.UpdateScrollDepth(sessionID, 50)
	monitor.HandleScroll(sessionID)
	assert.Equal(t, 0, sink.count())

	monitor.journeys.UpdateScrollDepth(sessionID, 80)
	monitor.HandleScroll(sessionID)
	assert.Equal(t, 1, sink.count())
}

func TestMonitor_KindIsolation(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{
		{ID: "time-rule", Kind: KindTime, Actions: []Action{{Type: "a"}}},
		{ID: "scroll-rule", Kind: KindScroll, Actions: []Action{{Type: "b"}}},
	}, sink)

	monitor.Check(sessionID, KindTime)
	require.Equal(t, 1, sink.count())
	assert.Equal(t, 1, monitor.FireCount(sessionID, "time-rule"))
	assert.Equal(t, 0, monitor.FireCount(sessionID, "scroll-rule"))
}

func TestMonitor_UnknownSessionNoOp(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, _ := newTestMonitor(t, clock, []Trigger{
		{ID: "time-rule", Kind: KindTime, Actions: []Action{{Type: "a"}}},
	}, sink)

	monitor.Check("no-such-session", KindTime)
	assert.Equal(t, 0, sink.count())
}

func TestMonitor_EndSessionResetsCounts(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:            "one-shot",
		Kind:          KindTime,
		Actions:       []Action{{Type: "a"}},
		MaxPerSession: 1,
	}}, sink)

	monitor.Check(sessionID, KindTime)
	monitor.Check(sessionID, KindTime)
	require.Equal(t, 1, sink.count())

	monitor.EndSession(sessionID)
	monitor.Check(sessionID, KindTime)
	assert.Equal(t, 2, sink.count(), "a fresh session starts with a zero count")
}

func TestMonitor_DelayedActionDispatches(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:      "delayed-offer",
		Kind:    KindTime,
		Actions: []Action{{Type: "show-modal", DelaySeconds: 1}},
	}}, sink)

	monitor.Check(sessionID, KindTime)
	assert.Equal(t, 0, sink.count(), "delayed action must not run synchronously")

	require.Eventually(t, func() bool { return sink.count() == 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestMonitor_StopCancelsDelayedActions(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, sessionID := newTestMonitor(t, clock, []Trigger{{
		ID:      "delayed-offer",
		Kind:    KindTime,
		Actions: []Action{{Type: "show-modal", DelaySeconds: 1}},
	}}, sink)

	monitor.Start(context.Background())
	monitor.Check(sessionID, KindTime)
	monitor.Stop()

	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, 0, sink.count(), "stopped monitor must not dispatch scheduled actions")
}

func TestMonitor_StartStop(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	monitor, _ := newTestMonitor(t, clock, nil, sink)

	monitor.Start(context.Background())
	monitor.Stop()
	// Stop with nothing running is safe.
	monitor.Stop()
}
