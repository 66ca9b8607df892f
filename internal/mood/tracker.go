package mood

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

// MaxCachedHistories bounds how many user histories a tracker keeps in
// memory. The least recently used history is dropped first and is
// reloaded from the store on its next use.
const MaxCachedHistories = 1000

var (
	// ErrAnalysis wraps failures of the analysis service.
	ErrAnalysis = errors.New("mood analysis failed")
	// ErrStore wraps failures to read or write mood entries locally.
	ErrStore = errors.New("mood store failed")
)

type cachedHistory struct {
	history *History
	used    uint64
}

// Tracker analyses mood entries and keeps a history per user. Entries are
// written through to the store when one is configured.
type Tracker struct {
	analyzer Analyzer
	st       store.Store
	now      func() time.Time

	mu           sync.Mutex
	histories    map[string]*cachedHistory
	maxHistories int
	tick         uint64
}

// NewTracker creates a tracker. st may be nil, in which case histories
// dropped from the cache are lost.
func NewTracker(analyzer Analyzer, st store.Store) *Tracker {
	return &Tracker{
		analyzer:     analyzer,
		st:           st,
		now:          time.Now,
		histories:    make(map[string]*cachedHistory),
		maxHistories: MaxCachedHistories,
	}
}

// Record validates and analyses text and adds the result to the user's history.
func (t *Tracker) Record(ctx context.Context, userID, text string) (models.MoodEntry, error) {
	text, err := ValidateEntry(text)
	if err != nil {
		return models.MoodEntry{}, err
	}
	h, err := t.History(userID)
	if err != nil {
		return models.MoodEntry{}, err
	}

	analysis, err := t.analyzer.Analyze(ctx, text)
	if err != nil {
		slog.Error("Tracker.Record: analysis failed", "error", err, "userID", userID)
		return models.MoodEntry{}, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	entry := models.MoodEntry{
		UserID:    userID,
		Text:      text,
		Analysis:  analysis,
		CreatedAt: t.now(),
	}
	if t.st != nil {
		id, err := t.st.AddMoodEntry(entry)
		if err != nil {
			slog.Error("Tracker.Record: failed to store entry", "error", err, "userID", userID)
			return models.MoodEntry{}, fmt.Errorf("%w: store mood entry: %w", ErrStore, err)
		}
		entry.ID = id
	}
	h.Add(entry)
	slog.Info("Tracker.Record: mood recorded", "userID", userID, "score", analysis.MoodScore, "category", analysis.MoodCategory)
	return entry, nil
}

// History returns the user's history, loading it from the store on first use.
func (t *Tracker) History(userID string) (*History, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick++
	if c, ok := t.histories[userID]; ok {
		c.used = t.tick
		return c.history, nil
	}
	var entries []models.MoodEntry
	if t.st != nil {
		var err error
		entries, err = t.st.ListMoodEntries(userID, HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: load mood history: %w", ErrStore, err)
		}
	}
	if len(t.histories) >= t.maxHistories {
		t.evictLocked()
	}
	h := NewHistory(entries)
	t.histories[userID] = &cachedHistory{history: h, used: t.tick}
	slog.Debug("Tracker.History: history loaded", "userID", userID, "entries", len(entries))
	return h, nil
}

// evictLocked drops the least recently used history. t.mu must be held.
func (t *Tracker) evictLocked() {
	var oldest string
	var oldestTick uint64
	first := true
	for id, c := range t.histories {
		if first || c.used < oldestTick {
			oldest, oldestTick, first = id, c.used, false
		}
	}
	delete(t.histories, oldest)
	slog.Debug("Tracker.evict: history dropped from cache", "userID", oldest)
}
