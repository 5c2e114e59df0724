package selector

import (
	"context"
	"sync"
	"time"

	"github.com/growth-engine/growth-engine/internal/engagement"
	"github.com/growth-engine/growth-engine/internal/journey"
)

// fallbackInterval bounds how stale a cached classification can get when a
// journey mutation notification is missed. Invalidation is normally
// event-driven; the ticker is only a safety net.
const fallbackInterval = 30 * time.Second

// Engine serves ranked CTA and content selections for live sessions.
// Classifications are cached per session and invalidated by journey store
// notifications, with a periodic full flush as a fallback.
type Engine struct {
	journeys   *journey.Store
	scorer     *engagement.Scorer
	classifier *engagement.Classifier
	ctas       []CTAConfig
	content    []ContentItem

	mu    sync.Mutex
	cache map[string]engagement.EngagementLevel

	unsubscribe func()
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewEngine builds a selection engine over the given catalogs.
func NewEngine(journeys *journey.Store, scorer *engagement.Scorer, classifier *engagement.Classifier, ctas []CTAConfig, content []ContentItem) *Engine {
	return &Engine{
		journeys:   journeys,
		scorer:     scorer,
		classifier: classifier,
		ctas:       ctas,
		content:    content,
		cache:      make(map[string]engagement.EngagementLevel),
	}
}

// Start subscribes to journey mutations and launches the fallback flush
// ticker. Call Stop to tear both down.
func (e *Engine) Start(ctx context.Context) {
	e.unsubscribe = e.journeys.Subscribe(func(sessionID string) {
		e.mu.Lock()
		delete(e.cache, sessionID)
		e.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(fallbackInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.mu.Lock()
				e.cache = make(map[string]engagement.EngagementLevel)
				e.mu.Unlock()
			}
		}
	}()
}

// Stop unsubscribes and stops the fallback ticker.
func (e *Engine) Stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	if e.cancel != nil {
		e.cancel()
		<-e.done
		e.cancel = nil
	}
}

// Classify returns the engagement classification for a session, from cache
// when the journey has not changed since the last call.
func (e *Engine) Classify(sessionID string) (engagement.EngagementLevel, bool) {
	e.mu.Lock()
	cached, ok := e.cache[sessionID]
	e.mu.Unlock()
	if ok {
		return cached, true
	}

	snap, ok := e.journeys.Snapshot(sessionID)
	if !ok {
		return engagement.EngagementLevel{}, false
	}
	level := e.classifier.Classify(e.scorer.Score(snap), snap)

	e.mu.Lock()
	e.cache[sessionID] = level
	e.mu.Unlock()

	return level, true
}

// CTAs returns up to max CTAs applicable to the session right now.
// An unknown session gets an empty selection, never an error.
func (e *Engine) CTAs(sessionID string, max int) []CTAConfig {
	snap, ok := e.journeys.Snapshot(sessionID)
	if !ok {
		return nil
	}
	level, _ := e.Classify(sessionID)
	return Select(e.ctas, level, snap, max)
}

// Content returns up to max content items applicable to the session.
func (e *Engine) Content(sessionID string, max int) []ContentItem {
	snap, ok := e.journeys.Snapshot(sessionID)
	if !ok {
		return nil
	}
	level, _ := e.Classify(sessionID)
	return Select(e.content, level, snap, max)
}
