// Package journey holds per-session browsing state: sections viewed, tools
// used, content consumed, CTA clicks, scroll depth, and time on page. It is
// the single writer for all behavior state and notifies subscribers on every
// mutation so downstream consumers recompute instead of polling.
package journey

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/growth-engine/growth-engine/internal/engagement"
)

// Session is one visitor session's accumulated journey state.
type Session struct {
	ID            string
	VisitorID     string
	StartedAt     time.Time
	LastActivity  time.Time
	DeviceType    engagement.DeviceType
	ReturnVisitor bool

	sectionsViewed    []string
	toolsUsed         []string
	contentConsumed   []string
	ctaClicks         []string
	scrollDepth       int
	timeOnPageSeconds int
	interactionCount  int
}

// Store is the process-wide journey store. All access is guarded by a
// single RWMutex; mutators notify subscribers after releasing the lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	subs     map[int]func(sessionID string)
	nextSub  int
	ttl      time.Duration
	now      func() time.Time

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the idle-session expiry (default 30 minutes).
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty journey store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		subs:     make(map[int]func(string)),
		ttl:      30 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession creates a new session for a visitor. A blank visitorID gets
// a generated one. Returns the session ID.
func (s *Store) StartSession(visitorID string, device engagement.DeviceType, returnVisitor bool) string {
	if visitorID == "" {
		visitorID = uuid.NewString()
	}
	now := s.now()
	sess := &Session{
		ID:            uuid.NewString(),
		VisitorID:     visitorID,
		StartedAt:     now,
		LastActivity:  now,
		DeviceType:    device,
		ReturnVisitor: returnVisitor,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.ID
}

// EndSession drops a session and its runtime state.
func (s *Store) EndSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// ActiveSessions returns the number of live sessions.
func (s *Store) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionIDs returns the IDs of all live sessions, in no particular order.
func (s *Store) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe registers a callback invoked with the session ID after every
// mutation. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(sessionID string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// TrackSectionView records a viewed section (deduplicated, insertion order kept).
func (s *Store) TrackSectionView(sessionID, section string) {
	s.mutate(sessionID, func(sess *Session) {
		sess.sectionsViewed = appendUnique(sess.sectionsViewed, section)
		sess.interactionCount++
	})
}

// TrackToolUsage records use of an interactive tool.
func (s *Store) TrackToolUsage(sessionID, tool string) {
	s.mutate(sessionID, func(sess *Session) {
		sess.toolsUsed = appendUnique(sess.toolsUsed, tool)
		sess.interactionCount++
	})
}

// TrackContentConsumption records a consumed content item.
func (s *Store) TrackContentConsumption(sessionID, contentID string) {
	s.mutate(sessionID, func(sess *Session) {
		sess.contentConsumed = appendUnique(sess.contentConsumed, contentID)
		sess.interactionCount++
	})
}

// TrackCTAClick records a CTA click. Duplicates are kept in order.
func (s *Store) TrackCTAClick(sessionID, ctaID string) {
	s.mutate(sessionID, func(sess *Session) {
		sess.ctaClicks = append(sess.ctaClicks, ctaID)
		sess.interactionCount++
	})
}

// UpdateScrollDepth records the deepest scroll position seen so far.
func (s *Store) UpdateScrollDepth(sessionID string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mutate(sessionID, func(sess *Session) {
		if percent > sess.scrollDepth {
			sess.scrollDepth = percent
		}
	})
}

// UpdateTimeOnPage records client-reported time on page in seconds.
func (s *Store) UpdateTimeOnPage(sessionID string, seconds int) {
	s.mutate(sessionID, func(sess *Session) {
		if seconds > sess.timeOnPageSeconds {
			sess.timeOnPageSeconds = seconds
		}
	})
}

// Snapshot derives the current BehaviorSnapshot for a session. The snapshot
// is a copy; callers cannot mutate store state through it.
func (s *Store) Snapshot(sessionID string) (engagement.BehaviorSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return engagement.BehaviorSnapshot{}, false
	}

	duration := sess.timeOnPageSeconds
	if derived := int(s.now().Sub(sess.StartedAt).Seconds()); derived > duration {
		duration = derived
	}

	return engagement.BehaviorSnapshot{
		SessionDurationSeconds: duration,
		ScrollDepthPercent:     sess.scrollDepth,
		SectionsViewed:         copyStrings(sess.sectionsViewed),
		ToolsUsed:              copyStrings(sess.toolsUsed),
		ContentConsumed:        copyStrings(sess.contentConsumed),
		CTAsClicked:            copyStrings(sess.ctaClicks),
		InteractionCount:       sess.interactionCount,
		DeviceType:             sess.DeviceType,
		TimeOfDay:              engagement.TimeOfDayFor(s.now().Hour()),
		ReturnVisitor:          sess.ReturnVisitor,
	}, true
}

// VisitorID resolves a session's visitor identity.
func (s *Store) VisitorID(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	return sess.VisitorID, true
}

// StartSweeper launches a background goroutine that expires idle sessions.
// Stop it with StopSweeper; the goroutine also exits when ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.sweepCancel = cancel
	s.sweepDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// StopSweeper cancels the sweeper and waits for it to exit.
func (s *Store) StopSweeper() {
	s.mu.Lock()
	cancel, done := s.sweepCancel, s.sweepDone
	s.sweepCancel, s.sweepDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Store) sweep() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
}

// mutate applies fn under the write lock, then notifies subscribers outside it.
func (s *Store) mutate(sessionID string, fn func(*Session)) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		fn(sess)
		sess.LastActivity = s.now()
	}
	var subs []func(string)
	if ok {
		subs = make([]func(string), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, notify := range subs {
		notify(sessionID)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
