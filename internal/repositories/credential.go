package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tunex/internal/models"
)

// CredentialRepository implements [models.Repository] for [models.AppCredential]
// persistence, keyed by provider name.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a credential. It fails when the provider already has one.
func (r *CredentialRepository) Create(c *models.AppCredential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO app_credentials (provider, app_id, app_secret, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, c.Provider, c.AppID, c.AppSecret, c.Source, c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("failed to insert app credential: %w", err)
	}
	return nil
}

// Get retrieves the credential stored for provider.
func (r *CredentialRepository) Get(provider string) (*models.AppCredential, error) {
	return r.GetCredential(context.Background(), provider)
}

// Update replaces the app id, secret and source of an existing credential.
func (r *CredentialRepository) Update(c *models.AppCredential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c.Updated = time.Now().UTC()
	query := `
		UPDATE app_credentials
		SET app_id = ?, app_secret = ?, source = ?, updated_at = ?
		WHERE provider = ?
	`

	result, err := r.db.Exec(query, c.AppID, c.AppSecret, c.Source, c.Updated, c.Provider)
	if err != nil {
		return fmt.Errorf("failed to update app credential: %w", err)
	}
	return requireAffected(result, "app credential", c.Provider)
}

// Delete removes the credential of provider.
func (r *CredentialRepository) Delete(provider string) error {
	result, err := r.db.Exec(`DELETE FROM app_credentials WHERE provider = ?`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete app credential: %w", err)
	}
	return requireAffected(result, "app credential", provider)
}

// List retrieves stored credentials, optionally filtered by "source".
func (r *CredentialRepository) List(criteria map[string]any) ([]*models.AppCredential, error) {
	query := `
		SELECT provider, app_id, app_secret, source, created_at, updated_at
		FROM app_credentials
		WHERE 1 = 1
	`
	args := []any{}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY provider ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query app credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.AppCredential
	for rows.Next() {
		var c models.AppCredential
		if err := rows.Scan(&c.Provider, &c.AppID, &c.AppSecret, &c.Source, &c.Created, &c.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan app credential: %w", err)
		}
		credentials = append(credentials, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return credentials, nil
}

// GetCredential implements services.CredentialStore.
func (r *CredentialRepository) GetCredential(ctx context.Context, provider string) (*models.AppCredential, error) {
	query := `
		SELECT provider, app_id, app_secret, source, created_at, updated_at
		FROM app_credentials
		WHERE provider = ?
	`

	var c models.AppCredential
	err := r.db.QueryRowContext(ctx, query, provider).Scan(&c.Provider, &c.AppID, &c.AppSecret, &c.Source, &c.Created, &c.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("app credential", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query app credential: %w", err)
	}
	return &c, nil
}

// SaveCredential implements services.CredentialStore. It inserts or replaces
// the provider's credential, keeping the original creation time.
func (r *CredentialRepository) SaveCredential(ctx context.Context, c *models.AppCredential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now

	query := `
		INSERT INTO app_credentials (provider, app_id, app_secret, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			app_id = excluded.app_id,
			app_secret = excluded.app_secret,
			source = excluded.source,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, c.Provider, c.AppID, c.AppSecret, c.Source, c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("failed to save app credential: %w", err)
	}
	return nil
}

// DeleteCredential implements services.CredentialStore.
func (r *CredentialRepository) DeleteCredential(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM app_credentials WHERE provider = ?`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete app credential: %w", err)
	}
	return requireAffected(result, "app credential", provider)
}
