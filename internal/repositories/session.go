package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tunex/internal/models"
)

// SessionRepository implements [models.Repository] for [models.SessionRecord]
// persistence. One session is kept per provider.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(s *models.SessionRecord) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (provider, user_id, display_name, subscription, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, s.Provider, s.UserID, s.DisplayName, s.Subscription, s.Token, s.Created)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(provider string) (*models.SessionRecord, error) {
	return r.GetSession(context.Background(), provider)
}

func (r *SessionRepository) Update(s *models.SessionRecord) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sessions
		SET user_id = ?, display_name = ?, subscription = ?, token = ?
		WHERE provider = ?
	`

	result, err := r.db.Exec(query, s.UserID, s.DisplayName, s.Subscription, s.Token, s.Provider)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return requireAffected(result, "session", s.Provider)
}

func (r *SessionRepository) Delete(provider string) error {
	return r.DeleteSession(context.Background(), provider)
}

// List retrieves every stored session. Criteria are not used.
func (r *SessionRepository) List(_ map[string]any) ([]*models.SessionRecord, error) {
	query := `
		SELECT provider, user_id, display_name, subscription, token, created_at
		FROM sessions
		ORDER BY provider ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SessionRecord
	for rows.Next() {
		var s models.SessionRecord
		if err := rows.Scan(&s.Provider, &s.UserID, &s.DisplayName, &s.Subscription, &s.Token, &s.Created); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

// GetSession implements services.SessionStore.
func (r *SessionRepository) GetSession(ctx context.Context, provider string) (*models.SessionRecord, error) {
	query := `
		SELECT provider, user_id, display_name, subscription, token, created_at
		FROM sessions
		WHERE provider = ?
	`

	var s models.SessionRecord
	err := r.db.QueryRowContext(ctx, query, provider).Scan(&s.Provider, &s.UserID, &s.DisplayName, &s.Subscription, &s.Token, &s.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("session", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &s, nil
}

// SaveSession implements services.SessionStore, replacing any previous login.
func (r *SessionRepository) SaveSession(ctx context.Context, s *models.SessionRecord) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if s.Created.IsZero() {
		s.Created = time.Now().UTC()
	}

	query := `
		INSERT OR REPLACE INTO sessions (provider, user_id, display_name, subscription, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, s.Provider, s.UserID, s.DisplayName, s.Subscription, s.Token, s.Created)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession implements services.SessionStore.
func (r *SessionRepository) DeleteSession(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE provider = ?`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireAffected(result, "session", provider)
}
