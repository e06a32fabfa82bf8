package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

var (
	_ services.CredentialStore                 = (*CredentialRepository)(nil)
	_ services.SessionStore                    = (*SessionRepository)(nil)
	_ models.Repository[*models.AppCredential] = (*CredentialRepository)(nil)
	_ models.Repository[*models.SessionRecord] = (*SessionRepository)(nil)
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewAppCredential("qobuz", "123456789", "secret", "bundle")

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		got, err := repo.Get("qobuz")
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.AppID != "123456789" || got.AppSecret != "secret" || got.Source != "bundle" {
			t.Errorf("unexpected credential %+v", got)
		}
		if got.Created.IsZero() {
			t.Error("expected created_at to round trip")
		}

		if err := repo.Create(c); err == nil {
			t.Error("expected error when creating a duplicate provider")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		_, err := repo.GetCredential(ctx, "qobuz")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if err := repo.Create(models.NewAppCredential("qobuz", "", "", "bundle")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("SaveCredential upserts", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		first := models.NewAppCredential("qobuz", "111111111", "old", "bundle")
		if err := repo.SaveCredential(ctx, first); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}
		second := models.NewAppCredential("qobuz", "222222222", "new", "bundle")
		if err := repo.SaveCredential(ctx, second); err != nil {
			t.Fatalf("failed to replace credential: %v", err)
		}

		got, err := repo.GetCredential(ctx, "qobuz")
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.AppID != "222222222" || got.AppSecret != "new" {
			t.Errorf("expected replaced credential, got %+v", got)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list credentials: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected one row per provider, got %d", len(all))
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		c := models.NewAppCredential("qobuz", "123456789", "secret", "bundle")
		if err := repo.Update(c); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found before create, got %v", err)
		}

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}
		c.AppSecret = "rotated"
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update credential: %v", err)
		}

		got, _ := repo.Get("qobuz")
		if got.AppSecret != "rotated" {
			t.Errorf("expected rotated secret, got %s", got.AppSecret)
		}
	})

	t.Run("List filters by source", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Create(models.NewAppCredential("qobuz", "123456789", "secret", "bundle"))
		repo.Create(models.NewAppCredential("tidal", "client", "secret", "config"))

		got, err := repo.List(map[string]any{"source": "config"})
		if err != nil {
			t.Fatalf("failed to list credentials: %v", err)
		}
		if len(got) != 1 || got[0].Provider != "tidal" {
			t.Errorf("unexpected credentials %+v", got)
		}

		all, _ := repo.List(map[string]any{})
		if len(all) != 2 || all[0].Provider != "qobuz" {
			t.Errorf("expected providers in name order, got %+v", all)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Create(models.NewAppCredential("qobuz", "123456789", "secret", "bundle"))

		if err := repo.DeleteCredential(ctx, "qobuz"); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}
		if _, err := repo.Get("qobuz"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
		if err := repo.Delete("qobuz"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found on second delete, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	session := models.Session{
		Provider:     "qobuz",
		UserID:       "42",
		DisplayName:  "Jane",
		Subscription: "Studio",
		Token:        "tok-1",
		State:        models.Authenticated,
	}

	t.Run("Save and Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.SaveSession(ctx, models.NewSessionRecord(session)); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		got, err := repo.GetSession(ctx, "qobuz")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		restored := got.Session()
		if restored.Token != "tok-1" || restored.DisplayName != "Jane" || !restored.Authenticated() {
			t.Errorf("unexpected session %+v", restored)
		}
	})

	t.Run("Save replaces the previous login", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		repo.SaveSession(ctx, models.NewSessionRecord(session))

		next := session
		next.Token = "tok-2"
		if err := repo.SaveSession(ctx, models.NewSessionRecord(next)); err != nil {
			t.Fatalf("failed to replace session: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(all) != 1 || all[0].Token != "tok-2" {
			t.Errorf("unexpected sessions %+v", all)
		}
	})

	t.Run("Save validates", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		empty := models.NewSessionRecord(models.Session{Provider: "qobuz"})
		if err := repo.SaveSession(ctx, empty); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("Create and Update", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		rec := models.NewSessionRecord(session)

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		rec.DisplayName = "Jane Doe"
		if err := repo.Update(rec); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		got, _ := repo.Get("qobuz")
		if got.DisplayName != "Jane Doe" {
			t.Errorf("expected updated name, got %s", got.DisplayName)
		}

		other := models.NewSessionRecord(models.Session{Provider: "tidal", Token: "x"})
		if err := repo.Update(other); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		repo.SaveSession(ctx, models.NewSessionRecord(session))

		if err := repo.Delete("qobuz"); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.GetSession(ctx, "qobuz"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})
}
