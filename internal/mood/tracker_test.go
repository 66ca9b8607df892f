package mood

import (
	"context"
	"errors"
	"testing"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
)

type failingStore struct {
	*store.InMemoryStore
	addErr  error
	listErr error
}

func (f *failingStore) AddMoodEntry(e models.MoodEntry) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	return f.InMemoryStore.AddMoodEntry(e)
}

func (f *failingStore) ListMoodEntries(userID string, limit int) ([]models.MoodEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.InMemoryStore.ListMoodEntries(userID, limit)
}

type stubAnalyzer struct {
	scores []float64
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (models.MoodAnalysis, error) {
	if s.err != nil {
		return models.MoodAnalysis{}, s.err
	}
	score := s.scores[s.calls%len(s.scores)]
	s.calls++
	return models.MoodAnalysis{MoodScore: score, MoodCategory: "Okay"}, nil
}

func TestTrackerRecordsAndPersists(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	tr := NewTracker(&stubAnalyzer{scores: []float64{30, 70}}, st)

	if _, err := tr.Record(ctx, "u1", "meh"); err != nil {
		t.Fatal(err)
	}
	entry, err := tr.Record(ctx, "u1", " better now ")
	if err != nil {
		t.Fatal(err)
	}
	if entry.ID == 0 || entry.Text != "better now" || entry.UserID != "u1" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	h, _ := tr.History("u1")
	if s := h.Stats(); s.TotalEntries != 2 || s.AverageMood != 50 || s.Trend != models.MoodTrendImproving {
		t.Errorf("unexpected stats: %+v", s)
	}

	stored, err := st.ListMoodEntries("u1", 0)
	if err != nil || len(stored) != 2 {
		t.Fatalf("expected 2 stored entries, got %d err=%v", len(stored), err)
	}

	restarted := NewTracker(&stubAnalyzer{scores: []float64{50}}, st)
	h2, err := restarted.History("u1")
	if err != nil {
		t.Fatal(err)
	}
	if h2.Len() != 2 || h2.Recent(1)[0].Text != "better now" {
		t.Errorf("history not reloaded from store: %+v", h2.Recent(0))
	}
	if other, _ := restarted.History("u2"); other.Len() != 0 {
		t.Error("histories must be per user")
	}
}

func TestTrackerRejectsInvalidAndFailedEntries(t *testing.T) {
	ctx := context.Background()
	an := &stubAnalyzer{scores: []float64{50}}
	tr := NewTracker(an, nil)

	if _, err := tr.Record(ctx, "u1", ""); !errors.Is(err, ErrEmptyEntry) {
		t.Errorf("expected ErrEmptyEntry, got %v", err)
	}
	if an.calls != 0 {
		t.Error("invalid entry must not be analysed")
	}

	an.err = errors.New("remote down")
	if _, err := tr.Record(ctx, "u1", "fine"); !errors.Is(err, ErrAnalysis) || errors.Is(err, ErrStore) {
		t.Errorf("expected ErrAnalysis, got %v", err)
	}
	h, _ := tr.History("u1")
	if h.Len() != 0 {
		t.Errorf("failed analysis must not be recorded, len=%d", h.Len())
	}
}

func TestTrackerStoreFailures(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{InMemoryStore: store.NewInMemoryStore(), addErr: errors.New("disk full")}
	tr := NewTracker(&stubAnalyzer{scores: []float64{50}}, st)

	_, err := tr.Record(ctx, "u1", "fine")
	if !errors.Is(err, ErrStore) || errors.Is(err, ErrAnalysis) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if h, _ := tr.History("u1"); h.Len() != 0 {
		t.Errorf("unsaved entry must not be recorded, len=%d", h.Len())
	}

	st.listErr = errors.New("db locked")
	if _, err := tr.History("u2"); !errors.Is(err, ErrStore) {
		t.Errorf("expected ErrStore from history load, got %v", err)
	}
}

func TestTrackerEvictsLeastRecentlyUsedHistory(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	tr := NewTracker(&stubAnalyzer{scores: []float64{40}}, st)
	tr.maxHistories = 2

	for _, user := range []string{"u1", "u2"} {
		if _, err := tr.Record(ctx, user, "ok"); err != nil {
			t.Fatal(err)
		}
	}
	// Touch u1 so u2 becomes the eviction candidate.
	if _, err := tr.History("u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.History("u3"); err != nil {
		t.Fatal(err)
	}

	if len(tr.histories) != 2 {
		t.Fatalf("expected 2 cached histories, got %d", len(tr.histories))
	}
	if _, ok := tr.histories["u2"]; ok {
		t.Error("least recently used history should have been dropped")
	}
	if _, ok := tr.histories["u1"]; !ok {
		t.Error("recently used history should be kept")
	}

	h, err := tr.History("u2")
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 1 {
		t.Errorf("evicted history should reload from the store, len=%d", h.Len())
	}
}
