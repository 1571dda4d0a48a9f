package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFallbackSpike BookmarkType = "fallback_spike"
	BookmarkContactSurge  BookmarkType = "contact_surge"
	BookmarkFlockScatter  BookmarkType = "flock_scatter"
	BookmarkSteadyFlock   BookmarkType = "steady_flock"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Tick        int32
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentNeighborPeak float64 // peak mean neighbour count in recent history
	steadyWindowsCount int     // consecutive windows with a steady flock
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady flock detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Fallback spike: fallback rate > 2x rolling average
		if b := bd.checkFallbackSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Contact surge: contacts > 2x rolling average
		if b := bd.checkContactSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Flock scatter: mean neighbours dropped >50% from recent peak
		if b := bd.checkFlockScatter(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady flock: low speed and cohesion variance over 5+ windows
		if b := bd.checkSteadyFlock(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Update history
	bd.addToHistory(stats)

	if stats.NeighborsMean > bd.recentNeighborPeak {
		bd.recentNeighborPeak = stats.NeighborsMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkFallbackSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalFallbacks, totalHits int
	for _, h := range history {
		totalFallbacks += h.AvoidFallbacks
		totalHits += h.ProbeHits
	}

	if totalHits == 0 || stats.ProbeHits == 0 {
		return nil
	}

	avgRate := float64(totalFallbacks) / float64(totalHits)
	if avgRate == 0 {
		return nil
	}

	if stats.FallbackRate > avgRate*2.0 && stats.AvoidFallbacks >= 10 {
		return &Bookmark{
			Type:        BookmarkFallbackSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fallback rate %.2f is %.1fx average (%.2f)", stats.FallbackRate, stats.FallbackRate/avgRate, avgRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkContactSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Contacts
	}
	avg := float64(total) / float64(len(history))

	if stats.Contacts >= 3 && float64(stats.Contacts) > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkContactSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d contacts vs %.1f average", stats.Contacts, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFlockScatter(stats WindowStats) *Bookmark {
	if bd.recentNeighborPeak < 2 || stats.Agents < 10 {
		return nil
	}

	drop := 1.0 - stats.NeighborsMean/bd.recentNeighborPeak
	if drop > 0.5 {
		// Reset peak after scatter
		oldPeak := bd.recentNeighborPeak
		bd.recentNeighborPeak = stats.NeighborsMean

		return &Bookmark{
			Type:        BookmarkFlockScatter,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean neighbours fell %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.NeighborsMean),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyFlock(stats WindowStats) *Bookmark {
	if stats.Agents < 10 || stats.SpeedMean == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var speedSum, neighSum float64
	for _, h := range recent {
		speedSum += h.SpeedMean
		neighSum += h.NeighborsMean
	}
	speedMean := speedSum / 4
	neighMean := neighSum / 4

	var speedVar, neighVar float64
	for _, h := range recent {
		sd := h.SpeedMean - speedMean
		nd := h.NeighborsMean - neighMean
		speedVar += sd * sd
		neighVar += nd * nd
	}
	speedVar /= 4
	neighVar /= 4

	// CV^2 < 0.04 means CV < 0.2
	speedCV := 0.0
	if speedMean > 0 {
		speedCV = speedVar / (speedMean * speedMean)
	}
	neighCV := 0.0
	if neighMean > 0 {
		neighCV = neighVar / (neighMean * neighMean)
	}

	if speedCV < 0.04 && neighCV < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyFlock,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady flock of %d agents, speed %.2f, %.1f neighbours", stats.Agents, stats.SpeedMean, stats.NeighborsMean),
		}
	}

	return nil
}
