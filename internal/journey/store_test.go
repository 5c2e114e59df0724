package journey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growth-engine/growth-engine/internal/engagement"
)

func TestSnapshot_DerivedFromMutations(t *testing.T) {
	s := NewStore()
	id := s.StartSession("visitor-1", engagement.DeviceDesktop, true)

	s.TrackSectionView(id, "hero")
	s.TrackSectionView(id, "hero") // deduped
	s.TrackSectionView(id, "about")
	s.TrackToolUsage(id, "goal-setter")
	s.TrackContentConsumption(id, "guide-1")
	s.TrackCTAClick(id, "signup")
	s.TrackCTAClick(id, "signup") // duplicates kept
	s.UpdateScrollDepth(id, 60)
	s.UpdateScrollDepth(id, 40) // never regresses
	s.UpdateTimeOnPage(id, 90)

	snap, ok := s.Snapshot(id)
	require.True(t, ok)

	assert.Equal(t, []string{"hero", "about"}, snap.SectionsViewed)
	assert.Equal(t, []string{"goal-setter"}, snap.ToolsUsed)
	assert.Equal(t, []string{"guide-1"}, snap.ContentConsumed)
	assert.Equal(t, []string{"signup", "signup"}, snap.CTAsClicked)
	assert.Equal(t, 60, snap.ScrollDepthPercent)
	assert.GreaterOrEqual(t, snap.SessionDurationSeconds, 90)
	assert.Equal(t, engagement.DeviceDesktop, snap.DeviceType)
	assert.True(t, snap.ReturnVisitor)
}

func TestSnapshot_UnknownSession(t *testing.T) {
	s := NewStore()

	_, ok := s.Snapshot("nope")
	assert.False(t, ok)
}

func TestSubscribe_NotifiedOnMutation(t *testing.T) {
	s := NewStore()
	id := s.StartSession("", engagement.DeviceMobile, false)

	var got []string
	unsubscribe := s.Subscribe(func(sessionID string) {
		got = append(got, sessionID)
	})

	s.TrackSectionView(id, "hero")
	s.UpdateScrollDepth(id, 50)

	require.Len(t, got, 2)
	assert.Equal(t, id, got[0])

	unsubscribe()
	s.TrackSectionView(id, "about")
	assert.Len(t, got, 2)
}

func TestMutation_UnknownSessionDoesNotNotify(t *testing.T) {
	s := NewStore()

	calls := 0
	s.Subscribe(func(string) { calls++ })

	s.TrackSectionView("missing", "hero")
	assert.Zero(t, calls)
}

func TestSweep_ExpiresIdleSessions(t *testing.T) {
	current := time.Now()
	s := NewStore(
		WithTTL(10*time.Minute),
		WithClock(func() time.Time { return current }),
	)

	stale := s.StartSession("old", engagement.DeviceDesktop, false)
	current = current.Add(15 * time.Minute)
	fresh := s.StartSession("new", engagement.DeviceDesktop, false)

	s.sweep()

	_, ok := s.Snapshot(stale)
	assert.False(t, ok)
	_, ok = s.Snapshot(fresh)
	assert.True(t, ok)
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestSweeper_StopsCleanly(t *testing.T) {
	s := NewStore()
	s.StartSweeper(context.Background(), 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	s.StopSweeper()
	// Stop twice is a no-op.
	s.StopSweeper()
}

func TestVisitorID_GeneratedWhenBlank(t *testing.T) {
	s := NewStore()
	id := s.StartSession("", engagement.DeviceTablet, false)

	visitor, ok := s.VisitorID(id)
	require.True(t, ok)
	assert.NotEmpty(t, visitor)
}
