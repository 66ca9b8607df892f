// Package store provides storage backends for MindVibe.
//
// It includes an in-memory store plus SQLite and PostgreSQL backends for
// message receipts, chat responses, onboarding flow state, user profiles
// and mood entries.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// Store defines the interface for storage backends.
type Store interface {
	AddReceipt(r models.Receipt) error
	GetReceipts() ([]models.Receipt, error)
	AddResponse(r models.Response) error
	GetResponses() ([]models.Response, error)
	ClearReceipts() error
	ClearResponses() error

	// Flow state management. GetFlowState returns nil, nil when no state exists.
	SaveFlowState(state models.FlowState) error
	GetFlowState(participantID string, flowType models.FlowType) (*models.FlowState, error)
	DeleteFlowState(participantID string, flowType models.FlowType) error

	// User profiles created by onboarding. GetUserProfile returns nil, nil when not found.
	SaveUserProfile(p models.UserProfile) error
	GetUserProfile(id string) (*models.UserProfile, error)

	// Mood entries. ListMoodEntries returns newest first; limit <= 0 means all.
	AddMoodEntry(e models.MoodEntry) (int64, error)
	ListMoodEntries(userID string, limit int) ([]models.MoodEntry, error)

	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string // database connection string
}

// Option defines a configuration option for store implementations.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and
// "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore is a simple in-memory store, safe for concurrent use.
type InMemoryStore struct {
	mu         sync.RWMutex
	receipts   []models.Receipt
	responses  []models.Response
	flowStates map[string]models.FlowState
	profiles   map[string]models.UserProfile
	moods      []models.MoodEntry
	nextMoodID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		flowStates: make(map[string]models.FlowState),
		profiles:   make(map[string]models.UserProfile),
	}
}

func (s *InMemoryStore) AddReceipt(r models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
	return nil
}

func (s *InMemoryStore) GetReceipts() ([]models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Receipt(nil), s.receipts...), nil
}

func (s *InMemoryStore) AddResponse(r models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, r)
	return nil
}

func (s *InMemoryStore) GetResponses() ([]models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Response(nil), s.responses...), nil
}

func (s *InMemoryStore) ClearReceipts() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = nil
	return nil
}

func (s *InMemoryStore) ClearResponses() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = nil
	return nil
}

func flowStateKey(participantID string, flowType models.FlowType) string {
	return participantID + "|" + string(flowType)
}

// SaveFlowState stores or updates flow state for a participant.
func (s *InMemoryStore) SaveFlowState(state models.FlowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.StateData = copyStateData(state.StateData)
	s.flowStates[flowStateKey(state.ParticipantID, state.FlowType)] = state
	slog.Debug("InMemoryStore.SaveFlowState: saved", "participantID", state.ParticipantID, "flowType", state.FlowType, "state", state.CurrentState)
	return nil
}

// GetFlowState retrieves flow state for a participant.
func (s *InMemoryStore) GetFlowState(participantID string, flowType models.FlowType) (*models.FlowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.flowStates[flowStateKey(participantID, flowType)]
	if !ok {
		return nil, nil
	}
	state.StateData = copyStateData(state.StateData)
	return &state, nil
}

// DeleteFlowState removes flow state for a participant.
func (s *InMemoryStore) DeleteFlowState(participantID string, flowType models.FlowType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flowStates, flowStateKey(participantID, flowType))
	return nil
}

func (s *InMemoryStore) SaveUserProfile(p models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Answers = copyAnswers(p.Answers)
	s.profiles[p.ID] = p
	return nil
}

func (s *InMemoryStore) GetUserProfile(id string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Answers = copyAnswers(p.Answers)
	return &p, nil
}

func (s *InMemoryStore) AddMoodEntry(e models.MoodEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMoodID++
	e.ID = s.nextMoodID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.moods = append(s.moods, e)
	return e.ID, nil
}

func (s *InMemoryStore) ListMoodEntries(userID string, limit int) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MoodEntry
	for _, e := range s.moods {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
