package mood

import (
	"math"
	"sync"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// History limits.
const (
	ChartSize    = 10
	RecentSize   = 5
	HistoryLimit = 30
)

// ChartLabelLayout formats chart labels as HH:MM.
const ChartLabelLayout = "15:04"

// History is a newest-first list of at most HistoryLimit mood entries.
// It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []models.MoodEntry
}

// NewHistory creates a history from entries already ordered newest first.
func NewHistory(entries []models.MoodEntry) *History {
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}
	return &History{entries: append([]models.MoodEntry(nil), entries...)}
}

// Add puts e at the front of the history.
func (h *History) Add(e models.MoodEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]models.MoodEntry{e}, h.entries...)
	if len(h.entries) > HistoryLimit {
		h.entries = h.entries[:HistoryLimit]
	}
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Recent returns up to n entries, newest first. n <= 0 returns all entries.
func (h *History) Recent(n int) []models.MoodEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]models.MoodEntry{}, h.entries[:n]...)
}

// Chart returns the scores of the last n entries ordered oldest to newest.
func (h *History) Chart(n int) models.ChartSeries {
	recent := h.Recent(n)
	series := models.ChartSeries{
		Labels: make([]string, 0, len(recent)),
		Scores: make([]float64, 0, len(recent)),
	}
	for i := len(recent) - 1; i >= 0; i-- {
		series.Labels = append(series.Labels, recent[i].CreatedAt.Format(ChartLabelLayout))
		series.Scores = append(series.Scores, recent[i].Analysis.MoodScore)
	}
	return series
}

// Stats summarises all entries.
func (h *History) Stats() models.MoodStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := models.MoodStats{TotalEntries: len(h.entries), Trend: models.MoodTrendStable}
	if len(h.entries) == 0 {
		return stats
	}
	var sum float64
	for _, e := range h.entries {
		sum += e.Analysis.MoodScore
	}
	stats.AverageMood = int(math.Round(sum / float64(len(h.entries))))
	if len(h.entries) >= 2 && h.entries[0].Analysis.MoodScore > h.entries[1].Analysis.MoodScore {
		stats.Trend = models.MoodTrendImproving
	}
	return stats
}

// Response builds the GET /mood-history payload.
func (h *History) Response() models.MoodHistoryResponse {
	return models.MoodHistoryResponse{
		Entries: h.Recent(0),
		Chart:   h.Chart(ChartSize),
		Stats:   h.Stats(),
	}
}
