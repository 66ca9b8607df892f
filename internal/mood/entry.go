// Package mood records mood entries analysed by a remote service and
// summarises them as a history, a chart series and statistics.
package mood

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxEntryLength is the longest accepted mood entry, in characters.
const MaxEntryLength = 500

var (
	// ErrEmptyEntry is returned for an entry with no text.
	ErrEmptyEntry = errors.New("mood entry is empty")
	// ErrEntryTooLong is returned for an entry over MaxEntryLength characters.
	ErrEntryTooLong = errors.New("mood entry is too long")
)

// ValidateEntry trims text and checks it is a usable mood entry.
func ValidateEntry(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyEntry
	}
	if utf8.RuneCountInString(text) > MaxEntryLength {
		return "", ErrEntryTooLong
	}
	return text, nil
}

// DescribeSentiment labels a polarity value, e.g. "Positive (0.45)".
func DescribeSentiment(polarity float64) string {
	label := "Neutral"
	switch {
	case polarity > 0:
		label = "Positive"
	case polarity < 0:
		label = "Negative"
	}
	return label + " (" + strconv.FormatFloat(polarity, 'f', -1, 64) + ")"
}

// ConfidencePercent converts a subjectivity score in [0, 1] to a whole percentage.
func ConfidencePercent(subjectivity float64) int {
	return int(math.Round(subjectivity * 100))
}
