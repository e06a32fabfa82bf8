package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
)

func TestRegistry(t *testing.T) {
	cfg := shared.DefaultConfig()

	t.Run("NewRegistry", func(t *testing.T) {
		r, err := NewRegistry(cfg, testDeps())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if r.Default() != Saavn {
			t.Errorf("expected saavn default, got %s", r.Default())
		}

		for _, p := range Providers {
			c, err := r.Resolve(string(p))
			if err != nil {
				t.Fatalf("expected %s to resolve, got %v", p, err)
			}
			if c.Provider() != p {
				t.Errorf("expected %s, got %s", p, c.Provider())
			}
		}

		c, err := r.Resolve("  QOBUZ ")
		if err != nil || c.Provider() != Qobuz {
			t.Errorf("expected case-insensitive lookup, got %v, %v", c, err)
		}
	})

	t.Run("unknown default provider", func(t *testing.T) {
		bad := shared.DefaultConfig()
		bad.Providers.Default = "napster"
		if _, err := NewRegistry(bad, testDeps()); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected invalid request, got %v", err)
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		r := NewRegistryWith(Gaana, NewSaavn(cfg.Providers.Saavn, testDeps()), NewGaana(cfg.Providers.Gaana, testDeps()))

		c, err := r.Resolve("")
		if err != nil || c.Provider() != Gaana {
			t.Errorf("expected default provider, got %v, %v", c, err)
		}
		if _, err := r.Resolve("napster"); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected invalid request, got %v", err)
		}
		if _, err := r.Resolve("tidal"); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected configuration error for unregistered provider, got %v", err)
		}
	})

	t.Run("capabilities", func(t *testing.T) {
		r, err := NewRegistry(cfg, testDeps())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := r.Authenticator("qobuz"); err != nil {
			t.Errorf("expected qobuz to support login, got %v", err)
		}
		if _, err := r.Authenticator("saavn"); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected saavn login to be unsupported, got %v", err)
		}
		for _, name := range []string{"qobuz", "tidal"} {
			if _, err := r.Streamer(name); err != nil {
				t.Errorf("expected %s to resolve streams, got %v", name, err)
			}
		}
		if _, err := r.Streamer("gaana"); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected gaana streaming to be unsupported, got %v", err)
		}
	})

	t.Run("Restore and ClearCaches", func(t *testing.T) {
		store := newMemoryStore()
		store.sessions["qobuz"] = models.NewSessionRecord(models.Session{Provider: "qobuz", UserID: "42", Token: "persisted"})
		store.credentials["qobuz"] = models.NewAppCredential("qobuz", "123456789", "stored", "bundle")

		d := testDeps()
		d.Sessions = store
		d.Credentials = store
		r, err := NewRegistry(cfg, d)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		r.Restore(context.Background())
		a, _ := r.Authenticator("qobuz")
		if !a.Session().Authenticated() {
			t.Error("expected restored qobuz session")
		}

		r.ClearCaches()
		if _, ok := store.credentials["qobuz"]; ok {
			t.Error("expected cleared credentials")
		}
	})
}
