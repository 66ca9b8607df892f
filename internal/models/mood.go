package models

import "time"

// MoodAnalysis is the result returned by the remote mood-analysis endpoint.
type MoodAnalysis struct {
	MoodScore       float64            `json:"mood_score"`
	MoodCategory    string             `json:"mood_category"`
	Polarity        float64            `json:"polarity"`
	Subjectivity    float64            `json:"subjectivity"`
	Recommendations []string           `json:"recommendations"`
	Color           string             `json:"color,omitempty"`
	Timestamp       string             `json:"timestamp,omitempty"`
	SentimentLabel  string             `json:"sentiment_label,omitempty"`
	CrisisLevel     int                `json:"crisis_level,omitempty"`
	Emotions        []Emotion          `json:"emotions,omitempty"`
}

// Emotion is one scored emotion label of an analysis.
type Emotion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MoodEntry is one analysed mood entry kept in the history.
type MoodEntry struct {
	ID        int64        `json:"id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Text      string       `json:"text"`
	Analysis  MoodAnalysis `json:"analysis"`
	CreatedAt time.Time    `json:"created_at"`
}

// MoodStats summarises a mood history.
type MoodStats struct {
	TotalEntries int    `json:"total_entries"`
	AverageMood  int    `json:"average_mood"`
	Trend        string `json:"trend"`
}

// Mood trend values.
const (
	MoodTrendImproving = "improving"
	MoodTrendStable    = "stable"
)

// ChartSeries is the data behind the mood chart, oldest entry first.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// AnalyzeMoodRequest is the request body of POST /analyze-mood.
type AnalyzeMoodRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// MoodHistoryResponse is the result of GET /mood-history.
type MoodHistoryResponse struct {
	Entries []MoodEntry `json:"entries"`
	Chart   ChartSeries `json:"chart"`
	Stats   MoodStats   `json:"stats"`
}
