package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/flow"
)

// webSession hosts one onboarding controller for the JSON API. Each
// operation holds mu for its whole duration.
type webSession struct {
	mu         sync.Mutex
	id         string
	controller *flow.Controller
	surface    *flow.ViewSurface
	lastSeen   time.Time
}

// sessionView is the JSON representation of a session.
type sessionView struct {
	ID       string    `json:"id"`
	Accepted bool      `json:"accepted"`
	View     flow.View `json:"view"`
}

// view must be called with mu held.
func (ws *webSession) view(accepted bool) sessionView {
	ws.lastSeen = time.Now()
	return sessionView{ID: ws.id, Accepted: accepted, View: ws.surface.View()}
}

// DefaultMaxSessions bounds concurrently live web onboarding sessions.
const DefaultMaxSessions = 10000

var errTooManySessions = errors.New("too many active sessions")

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*webSession
	max      int
}

func newSessionRegistry(limit int) *sessionRegistry {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &sessionRegistry{sessions: make(map[string]*webSession), max: limit}
}

// create starts a new rendered session. It fails with errTooManySessions
// once the registry is full; idle sessions free up room when pruned.
func (r *sessionRegistry) create(questions []flow.Question, completer flow.Completer) (*webSession, error) {
	if r.count() >= r.max {
		return nil, errTooManySessions
	}
	surface := flow.NewViewSurface()
	controller, err := flow.NewController(questions, surface, completer)
	if err != nil {
		return nil, err
	}
	controller.Render()
	ws := &webSession{
		id:         uuid.NewString(),
		controller: controller,
		surface:    surface,
		lastSeen:   time.Now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.max {
		return nil, errTooManySessions
	}
	r.sessions[ws.id] = ws
	return ws, nil
}

func (r *sessionRegistry) get(id string) (*webSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.sessions[id]
	return ws, ok
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// prune removes sessions not used since cutoff and returns how many were removed.
func (r *sessionRegistry) prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, ws := range r.sessions {
		ws.mu.Lock()
		idle := ws.lastSeen.Before(cutoff)
		ws.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
