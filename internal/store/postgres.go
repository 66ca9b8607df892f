package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddReceipt(r models.Receipt) error {
	_, err := s.db.Exec(`INSERT INTO receipts (recipient, status, time) VALUES ($1, $2, $3)`, r.To, r.Status, r.Time)
	if err != nil {
		slog.Error("PostgresStore AddReceipt failed", "error", err, "to", r.To)
		return fmt.Errorf("failed to insert receipt for %s: %w", r.To, err)
	}
	slog.Debug("PostgresStore AddReceipt succeeded", "to", r.To, "status", r.Status)
	return nil
}

func (s *PostgresStore) GetReceipts() ([]models.Receipt, error) {
	rows, err := s.db.Query(`SELECT recipient, status, time FROM receipts ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore GetReceipts query failed", "error", err)
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()
	var receipts []models.Receipt
	for rows.Next() {
		var r models.Receipt
		if err := rows.Scan(&r.To, &r.Status, &r.Time); err != nil {
			slog.Error("PostgresStore GetReceipts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetReceipts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate receipt rows: %w", err)
	}
	return receipts, nil
}

// AddResponse stores an incoming response in Postgres.
func (s *PostgresStore) AddResponse(r models.Response) error {
	_, err := s.db.Exec(`INSERT INTO responses (sender, body, time) VALUES ($1, $2, $3)`, r.From, r.Body, r.Time)
	if err != nil {
		slog.Error("PostgresStore AddResponse failed", "error", err, "from", r.From)
		return fmt.Errorf("failed to insert response from %s: %w", r.From, err)
	}
	slog.Debug("PostgresStore AddResponse succeeded", "from", r.From)
	return nil
}

// GetResponses retrieves all stored responses from Postgres.
func (s *PostgresStore) GetResponses() ([]models.Response, error) {
	rows, err := s.db.Query(`SELECT sender, body, time FROM responses ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore GetResponses query failed", "error", err)
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()
	var responses []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.From, &r.Body, &r.Time); err != nil {
			slog.Error("PostgresStore GetResponses scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan response row: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// ClearReceipts deletes all records in receipts table (for tests).
func (s *PostgresStore) ClearReceipts() error {
	_, err := s.db.Exec("DELETE FROM receipts")
	return err
}

// ClearResponses deletes all records in responses table (for tests).
func (s *PostgresStore) ClearResponses() error {
	_, err := s.db.Exec("DELETE FROM responses")
	return err
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}

// SaveFlowState stores or updates flow state for a participant.
func (s *PostgresStore) SaveFlowState(state models.FlowState) error {
	stateDataJSON, err := encodeJSON(state.StateData)
	if err != nil {
		slog.Error("PostgresStore SaveFlowState JSON marshal failed", "error", err, "participantID", state.ParticipantID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO flow_states (participant_id, flow_type, current_state, state_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_id, flow_type)
		DO UPDATE SET current_state = EXCLUDED.current_state, state_data = EXCLUDED.state_data, updated_at = EXCLUDED.updated_at`,
		state.ParticipantID, state.FlowType, state.CurrentState, nilIfEmpty(stateDataJSON), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveFlowState failed", "error", err, "participantID", state.ParticipantID, "flowType", state.FlowType)
		return fmt.Errorf("failed to save flow state for %s: %w", state.ParticipantID, err)
	}
	slog.Debug("PostgresStore SaveFlowState succeeded", "participantID", state.ParticipantID, "flowType", state.FlowType, "state", state.CurrentState)
	return nil
}

// GetFlowState retrieves flow state for a participant.
func (s *PostgresStore) GetFlowState(participantID string, flowType models.FlowType) (*models.FlowState, error) {
	var state models.FlowState
	var stateDataJSON sql.NullString
	err := s.db.QueryRow(`SELECT participant_id, flow_type, current_state, state_data, created_at, updated_at
		FROM flow_states WHERE participant_id = $1 AND flow_type = $2`, participantID, flowType).Scan(
		&state.ParticipantID, &state.FlowType, &state.CurrentState,
		&stateDataJSON, &state.CreatedAt, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetFlowState not found", "participantID", participantID, "flowType", flowType)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return nil, fmt.Errorf("failed to get flow state for %s: %w", participantID, err)
	}
	state.StateData = decodeStateData(stateDataJSON.String, participantID)
	return &state, nil
}

// DeleteFlowState removes flow state for a participant.
func (s *PostgresStore) DeleteFlowState(participantID string, flowType models.FlowType) error {
	_, err := s.db.Exec(`DELETE FROM flow_states WHERE participant_id = $1 AND flow_type = $2`, participantID, flowType)
	if err != nil {
		slog.Error("PostgresStore DeleteFlowState failed", "error", err, "participantID", participantID, "flowType", flowType)
		return fmt.Errorf("failed to delete flow state for %s: %w", participantID, err)
	}
	return nil
}

// SaveUserProfile inserts or updates a user profile.
func (s *PostgresStore) SaveUserProfile(p models.UserProfile) error {
	answersJSON, err := encodeJSON(p.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO user_profiles (id, name, gender, age, answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, gender = EXCLUDED.gender,
			age = EXCLUDED.age, answers = EXCLUDED.answers`,
		p.ID, p.Name, nilIfEmpty(p.Gender), nilIfEmpty(p.Age), nilIfEmpty(answersJSON), p.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveUserProfile failed", "error", err, "id", p.ID)
		return fmt.Errorf("failed to save user profile %s: %w", p.ID, err)
	}
	slog.Debug("PostgresStore SaveUserProfile succeeded", "id", p.ID)
	return nil
}

// GetUserProfile retrieves a user profile by id.
func (s *PostgresStore) GetUserProfile(id string) (*models.UserProfile, error) {
	var p models.UserProfile
	var gender, age, answersJSON sql.NullString
	err := s.db.QueryRow(`SELECT id, name, gender, age, answers, created_at FROM user_profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &gender, &age, &answersJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserProfile failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get user profile %s: %w", id, err)
	}
	p.Gender = gender.String
	p.Age = age.String
	if p.Answers, err = decodeAnswers(answersJSON.String); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddMoodEntry stores a mood entry and returns its id.
func (s *PostgresStore) AddMoodEntry(e models.MoodEntry) (int64, error) {
	analysisJSON, err := json.Marshal(e.Analysis)
	if err != nil {
		return 0, fmt.Errorf("failed to encode mood analysis: %w", err)
	}
	var id int64
	err = s.db.QueryRow(`INSERT INTO mood_entries (user_id, text, analysis, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		e.UserID, e.Text, string(analysisJSON), e.CreatedAt).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddMoodEntry failed", "error", err, "userID", e.UserID)
		return 0, fmt.Errorf("failed to insert mood entry: %w", err)
	}
	slog.Debug("PostgresStore AddMoodEntry succeeded", "id", id, "userID", e.UserID)
	return id, nil
}

// ListMoodEntries returns a user's mood entries, newest first.
func (s *PostgresStore) ListMoodEntries(userID string, limit int) ([]models.MoodEntry, error) {
	query := `SELECT id, user_id, text, analysis, created_at FROM mood_entries
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore ListMoodEntries query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()
	return scanMoodEntries(rows)
}
