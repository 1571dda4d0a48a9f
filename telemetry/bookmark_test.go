package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FallbackSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with a low fallback rate
	for i := 0; i < 5; i++ {
		stats := WindowStats{
			WindowEndTick:  int32(i * 600),
			ProbeHits:      100,
			AvoidFallbacks: 10,
			FallbackRate:   0.1,
		}
		bd.Check(stats)
	}

	// Now add a window with a high fallback rate (>2x average)
	spike := WindowStats{
		WindowEndTick:  3000,
		ProbeHits:      100,
		AvoidFallbacks: 40,
		FallbackRate:   0.4,
	}
	if !hasBookmark(bd.Check(spike), BookmarkFallbackSpike) {
		t.Error("expected fallback_spike bookmark")
	}
}

func TestBookmarkDetector_ContactSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Contacts: 1})
	}

	if !hasBookmark(bd.Check(WindowStats{WindowEndTick: 3000, Contacts: 5}), BookmarkContactSurge) {
		t.Error("expected contact_surge bookmark")
	}
}

func TestBookmarkDetector_FlockScatter(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up a cohesive flock
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Agents: 50, NeighborsMean: 8})
	}

	// Flock breaks apart
	scatter := WindowStats{WindowEndTick: 3000, Agents: 50, NeighborsMean: 3}
	if !hasBookmark(bd.Check(scatter), BookmarkFlockScatter) {
		t.Error("expected flock_scatter bookmark")
	}

	// Peak was reset, the same level does not retrigger
	if hasBookmark(bd.Check(scatter), BookmarkFlockScatter) {
		t.Error("flock_scatter retriggered without a new peak")
	}
}

func TestBookmarkDetector_SteadyFlock(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 12; i++ {
		stats := WindowStats{
			WindowEndTick: int32(i * 600),
			Agents:        100,
			SpeedMean:     3.5,
			NeighborsMean: 6,
		}
		if hasBookmark(bd.Check(stats), BookmarkSteadyFlock) {
			triggered++
			if i != 8 {
				t.Errorf("steady_flock triggered at window %d, want 8", i)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("steady_flock triggered %d times, want 1", triggered)
	}
}

func TestBookmarkDetector_NoHistoryNoBookmarks(t *testing.T) {
	bd := NewBookmarkDetector(3)
	got := bd.Check(WindowStats{Contacts: 100, ProbeHits: 100, AvoidFallbacks: 100, FallbackRate: 1})
	if len(got) != 0 {
		t.Errorf("first window produced bookmarks: %v", got)
	}
}
