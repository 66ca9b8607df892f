package mood

import (
	"sync"
	"testing"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

func entryAt(score float64, at time.Time) models.MoodEntry {
	return models.MoodEntry{Analysis: models.MoodAnalysis{MoodScore: score}, CreatedAt: at}
}

func TestHistoryOrderingAndChart(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	h := NewHistory(nil)
	for i := 0; i < 12; i++ {
		h.Add(entryAt(float64(i*5), base.Add(time.Duration(i)*time.Minute)))
	}

	recent := h.Recent(RecentSize)
	if len(recent) != 5 || recent[0].Analysis.MoodScore != 55 || recent[4].Analysis.MoodScore != 35 {
		t.Fatalf("recent should be newest first: %+v", recent)
	}

	chart := h.Chart(ChartSize)
	if len(chart.Scores) != 10 || len(chart.Labels) != 10 {
		t.Fatalf("chart should hold 10 points: %+v", chart)
	}
	if chart.Scores[0] != 10 || chart.Scores[9] != 55 {
		t.Errorf("chart should run oldest to newest: %v", chart.Scores)
	}
	if chart.Labels[0] != "09:02" || chart.Labels[9] != "09:11" {
		t.Errorf("unexpected labels: %v", chart.Labels)
	}
}

func TestHistoryStats(t *testing.T) {
	now := time.Now()
	h := NewHistory(nil)
	if s := h.Stats(); s.TotalEntries != 0 || s.AverageMood != 0 || s.Trend != models.MoodTrendStable {
		t.Errorf("empty stats: %+v", s)
	}

	h.Add(entryAt(40, now))
	if s := h.Stats(); s.Trend != models.MoodTrendStable || s.AverageMood != 40 {
		t.Errorf("single entry stats: %+v", s)
	}

	h.Add(entryAt(75, now))
	s := h.Stats()
	if s.TotalEntries != 2 || s.AverageMood != 58 || s.Trend != models.MoodTrendImproving {
		t.Errorf("stats after improvement: %+v", s)
	}

	h.Add(entryAt(75, now))
	if s := h.Stats(); s.Trend != models.MoodTrendStable {
		t.Errorf("equal scores should be stable: %+v", s)
	}
}

func TestHistoryLimitAndConcurrency(t *testing.T) {
	h := NewHistory(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Add(entryAt(50, time.Now()))
			_ = h.Stats()
			_ = h.Chart(ChartSize)
		}()
	}
	wg.Wait()
	if h.Len() != HistoryLimit {
		t.Errorf("history should be capped at %d, got %d", HistoryLimit, h.Len())
	}

	resp := h.Response()
	if len(resp.Entries) != HistoryLimit || len(resp.Chart.Scores) != ChartSize || resp.Stats.TotalEntries != HistoryLimit {
		t.Errorf("unexpected response sizes: entries=%d chart=%d total=%d", len(resp.Entries), len(resp.Chart.Scores), resp.Stats.TotalEntries)
	}
}
