package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	th "github.com/desertthunder/tunex/internal/testing"
)

// stubCatalog serves a tiny fixed catalog. Methods it does not override panic.
type stubCatalog struct {
	services.Catalog
	provider services.Provider
	songs    map[string]models.Song
	cleared  atomic.Int32
}

func newStubCatalog(p services.Provider) *stubCatalog {
	return &stubCatalog{
		provider: p,
		songs: map[string]models.Song{
			"3IoDK8qI": {
				ID: "3IoDK8qI", Name: "Tum Hi Ho", Type: models.KindSong, Duration: 262,
				URL:     "https://www.jiosaavn.com/song/tum-hi-ho/EToxUyFpcwQ",
				Artists: []models.ArtistBase{{ID: "459320", Name: "Arijit Singh", Type: models.KindArtist}},
			},
			"IcoLuefJ": {
				ID: "IcoLuefJ", Name: "Channa Mereya", Type: models.KindSong, Duration: 289,
				Artists: []models.ArtistBase{{ID: "459320", Name: "Arijit Singh", Type: models.KindArtist}},
			},
		},
	}
}

func (s *stubCatalog) Provider() services.Provider { return s.provider }

func (s *stubCatalog) Song(_ context.Context, id string) (*models.Song, error) {
	song, ok := s.songs[id]
	if !ok {
		return nil, shared.Errorf(shared.KindNotFound, "song %s not found", id)
	}
	return &song, nil
}

func (s *stubCatalog) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	out := []models.Song{}
	for _, id := range ids {
		if song, err := s.Song(ctx, id); err == nil {
			out = append(out, *song)
		}
	}
	return out, nil
}

func (s *stubCatalog) SongByLink(ctx context.Context, link string) (*models.Song, error) {
	if !strings.Contains(link, "/song/") {
		return nil, shared.Errorf(shared.KindInvalidLink, "invalid song link")
	}
	return s.Song(ctx, "3IoDK8qI")
}

func (s *stubCatalog) Album(_ context.Context, id string) (*models.Album, error) {
	song := s.songs["3IoDK8qI"]
	return &models.Album{ID: id, Name: "Aashiqui 2", Year: 2013, Songs: []models.Song{song}}, nil
}

func (s *stubCatalog) Artist(_ context.Context, id string) (*models.Artist, error) {
	return &models.Artist{ID: id, Name: "Arijit Singh", Followers: 42}, nil
}

func (s *stubCatalog) ArtistSongs(_ context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	items := []models.Song{s.songs["IcoLuefJ"]}
	page := pagination.Paginate(items, 7, p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (s *stubCatalog) Playlist(_ context.Context, id string, p pagination.Params) (*models.Playlist, error) {
	return &models.Playlist{ID: id, Name: "Weekly Top Songs", TotalSongs: 30, Songs: []models.Song{s.songs["3IoDK8qI"]}}, nil
}

func (s *stubCatalog) PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error) {
	return s.Playlist(ctx, "110858205", p)
}

func (s *stubCatalog) Search(_ context.Context, query string) (*models.GlobalSearchResult, error) {
	return &models.GlobalSearchResult{
		Songs: models.SearchBucket{Results: []models.SearchItem{{ID: "3IoDK8qI", Title: "Tum Hi Ho", Type: models.KindSong}}},
	}, nil
}

func (s *stubCatalog) SearchSongs(_ context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error) {
	return &models.SearchResult[models.Song]{Total: 1, Start: p.Offset, Results: []models.Song{s.songs["3IoDK8qI"]}}, nil
}

func (s *stubCatalog) SearchArtists(_ context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error) {
	return &models.SearchResult[models.Artist]{Total: 1, Results: []models.Artist{{ID: "459320", Name: "Arijit Singh"}}}, nil
}

func (s *stubCatalog) ClearCache() { s.cleared.Add(1) }

// stubAccount adds user sessions and stream resolution.
type stubAccount struct {
	*stubCatalog
	session models.Session
}

func (a *stubAccount) Login(_ context.Context, creds services.Credentials) (models.Session, error) {
	if creds.Token != "captured" && creds.Password != "hunter2" {
		return models.Session{}, shared.Errorf(shared.KindUnauthorized, "invalid credentials")
	}
	a.session = models.Session{Provider: string(a.provider), UserID: "2113276", DisplayName: "listener", Token: "captured", State: models.Authenticated}
	return a.session, nil
}

func (a *stubAccount) Logout(context.Context) error {
	a.session = models.Session{Provider: string(a.provider)}
	return nil
}

func (a *stubAccount) Session() models.Session { return a.session }

func (a *stubAccount) StreamURL(_ context.Context, id, quality string) (*models.AudioLink, error) {
	if a.session.Token == "" {
		return nil, shared.Errorf(shared.KindUnauthorized, "login required")
	}
	return &models.AudioLink{Quality: quality, URL: "https://streaming.qobuz.test/" + id}, nil
}

type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	saavn   *stubCatalog
	account *stubAccount
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	saavn := newStubCatalog(services.Saavn)
	account := &stubAccount{stubCatalog: newStubCatalog(services.Qobuz), session: models.Session{Provider: "qobuz"}}
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Config:   shared.DefaultConfig(),
		Registry: services.NewRegistryWith(services.Saavn, saavn, account),
		Logger:   log.New(io.Discard),
		Output:   output,
	})
	return &fixture{runner: runner, output: output, saavn: saavn, account: account}
}

func (f *fixture) run(args ...string) error {
	f.output.Reset()
	return newApp(f.runner).Run(context.Background(), append([]string{"tunex"}, args...))
}

func TestCatalogCommands(t *testing.T) {
	t.Run("song", func(t *testing.T) {
		t.Run("renders one song as JSON", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song", "--format", "json", "3IoDK8qI"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var song models.Song
			if err := json.Unmarshal(f.output.Bytes(), &song); err != nil {
				t.Fatalf("expected JSON output, got %q", f.output.String())
			}
			if song.Name != "Tum Hi Ho" {
				t.Errorf("unexpected song %+v", song)
			}
		})

		t.Run("fetches several ids best-effort", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song", "--format", "csv", "3IoDK8qI", "missing", "IcoLuefJ"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			output := f.output.String()
			if !strings.Contains(output, "Tum Hi Ho") || !strings.Contains(output, "Channa Mereya") {
				t.Errorf("expected both songs, got %s", output)
			}
			if lines := strings.Count(output, "\n"); lines != 3 {
				t.Errorf("expected header and two rows, got %d lines", lines)
			}
		})

		t.Run("resolves a link", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song", "--link", "https://www.jiosaavn.com/song/tum-hi-ho/EToxUyFpcwQ"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), "Tum Hi Ho") {
				t.Errorf("expected song output, got %s", f.output.String())
			}
		})

		t.Run("propagates typed errors", func(t *testing.T) {
			f := newFixture(t)
			err := f.run("song", "--link", "https://www.jiosaavn.com/album/aashiqui-2/1139549")
			if !errors.Is(err, shared.ErrInvalidLink) {
				t.Errorf("expected InvalidLink, got %v", err)
			}

			err = f.run("song", "--provider", "spotify", "3IoDK8qI")
			if shared.KindOf(err) != shared.KindInvalidRequest {
				t.Errorf("expected InvalidRequest for unknown provider, got %v", err)
			}

			err = f.run("song", "--provider", "tidal", "3IoDK8qI")
			if shared.KindOf(err) != shared.KindConfiguration {
				t.Errorf("expected Configuration for unregistered provider, got %v", err)
			}
		})

		t.Run("requires an id or link", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected missing argument error, got %v", err)
			}
		})

		t.Run("rejects unknown formats", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song", "--format", "yaml", "3IoDK8qI"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected invalid argument error, got %v", err)
			}
		})

		t.Run("resolves stream urls", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("song", "--provider", "qobuz", "--stream", "lossless", "3IoDK8qI"); shared.KindOf(err) != shared.KindUnauthorized {
				t.Fatalf("expected Unauthorized without a session, got %v", err)
			}

			f.account.session.Token = "captured"
			if err := f.run("song", "--provider", "qobuz", "--stream", "lossless", "3IoDK8qI"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), "https://streaming.qobuz.test/3IoDK8qI") {
				t.Errorf("expected stream url, got %s", f.output.String())
			}

			if err := f.run("song", "--stream", "320kbps", "3IoDK8qI"); shared.KindOf(err) != shared.KindInvalidRequest {
				t.Errorf("expected InvalidRequest for a provider without streams, got %v", err)
			}
		})
	})

	t.Run("album", func(t *testing.T) {
		t.Run("renders markdown", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("album", "--format", "md", "1139549"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), "# Aashiqui 2") {
				t.Errorf("expected markdown title, got %s", f.output.String())
			}
		})

		t.Run("exports to a directory", func(t *testing.T) {
			f := newFixture(t)
			dir := filepath.Join(t.TempDir(), "aashiqui-2")
			if err := f.run("album", "--export-dir", dir, "1139549"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			th.AssertFileExists(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(f.output.String(), "Exported") {
				t.Errorf("expected export confirmation, got %s", f.output.String())
			}
		})
	})

	t.Run("artist", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("artist", "459320"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Followers: 42") {
			t.Errorf("expected artist profile, got %s", f.output.String())
		}

		if err := f.run("artist", "--songs", "--format", "json", "--limit", "1", "459320"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var page models.Paginated[models.Song]
		if err := json.Unmarshal(f.output.Bytes(), &page); err != nil {
			t.Fatalf("expected JSON page, got %q", f.output.String())
		}
		if page.Total != 7 || page.Limit != 1 || !page.HasNext {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("playlist", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("playlist", "--link", "https://www.jiosaavn.com/featured/weekly-top-songs/8MT-LQlP35c_"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Weekly Top Songs (30 songs)") {
			t.Errorf("expected playlist title, got %s", f.output.String())
		}
	})

	t.Run("search", func(t *testing.T) {
		t.Run("global", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("search", "tum", "hi", "ho"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), "Tum Hi Ho") {
				t.Errorf("expected search hit, got %s", f.output.String())
			}
		})

		t.Run("by kind", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("search", "--kind", "songs", "--format", "json", "tum hi ho"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			var res models.SearchResult[models.Song]
			if err := json.Unmarshal(f.output.Bytes(), &res); err != nil {
				t.Fatalf("expected JSON result, got %q", f.output.String())
			}
			if res.Total != 1 || len(res.Results) != 1 {
				t.Errorf("unexpected result %+v", res)
			}

			if err := f.run("search", "--kind", "artist", "arijit"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), "Arijit Singh") {
				t.Errorf("expected artist hit, got %s", f.output.String())
			}
		})

		t.Run("validates input", func(t *testing.T) {
			f := newFixture(t)
			if err := f.run("search"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected missing argument error, got %v", err)
			}
			if err := f.run("search", "--kind", "podcasts", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected invalid argument error, got %v", err)
			}
		})
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("exports albums", func(t *testing.T) {
		f := newFixture(t)
		dir := t.TempDir()
		if err := f.run("export", "--kind", "album", "--format", "csv", "--output", dir, "--rate", "100", "1139549", "2011114"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		th.AssertFileExists(t, filepath.Join(dir, "1139549.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(f.output.String(), "Exported 2/2") {
			t.Errorf("expected summary, got %s", f.output.String())
		}
	})

	t.Run("validates input", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("export"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument error, got %v", err)
		}
		if err := f.run("export", "--kind", "artist", "459320"); !errors.Is(err, shared.ErrInvalidRequest) {
			t.Errorf("expected InvalidRequest for artists, got %v", err)
		}
		if err := f.run("export", "--format", "yaml", "1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument error, got %v", err)
		}
	})
}

func TestAccountCommands(t *testing.T) {
	t.Run("login with password", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("auth", "login", "--provider", "qobuz", "--username", "listener@example.com", "--password", "hunter2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "authenticated") {
			t.Errorf("expected session state, got %s", f.output.String())
		}
		if strings.Contains(f.output.String(), "captured") {
			t.Error("token must not be printed")
		}
	})

	t.Run("login with a captured request", func(t *testing.T) {
		f := newFixture(t)
		curl := filepath.Join(t.TempDir(), "request.sh")
		body := "curl 'https://www.qobuz.com/api.json/0.2/user/get?app_id=950096963' \\\n  -H 'X-User-Auth-Token: captured' \\\n  -H 'Accept: */*'\n"
		if err := os.WriteFile(curl, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}

		if err := f.run("auth", "login", "--provider", "qobuz", "--curl-file", curl); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !f.account.session.Authenticated() {
			t.Error("expected an authenticated session")
		}
	})

	t.Run("login validates arguments", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("auth", "login", "--provider", "qobuz", "--username", "listener"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument error, got %v", err)
		}
		if err := f.run("auth", "login", "--provider", "qobuz", "--curl", "x", "--curl-file", "y"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument error, got %v", err)
		}
		if err := f.run("auth", "login", "--token", "captured"); shared.KindOf(err) != shared.KindInvalidRequest {
			t.Errorf("expected InvalidRequest for saavn login, got %v", err)
		}
	})

	t.Run("status and logout", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("auth", "login", "--provider", "qobuz", "--token", "captured"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if err := f.run("auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var sessions []map[string]any
		if err := json.Unmarshal(f.output.Bytes(), &sessions); err != nil {
			t.Fatalf("expected JSON sessions, got %q", f.output.String())
		}
		if len(sessions) != 1 || sessions[0]["provider"] != "qobuz" || sessions[0]["state"] != "authenticated" {
			t.Errorf("unexpected sessions %+v", sessions)
		}
		if _, ok := sessions[0]["token"]; ok {
			t.Error("token must not be serialized")
		}

		if err := f.run("auth", "logout", "--provider", "qobuz"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.account.session.Authenticated() {
			t.Error("expected session to be dropped")
		}
	})
}

func TestMaintenanceCommands(t *testing.T) {
	t.Run("cache clear", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("cache", "clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.saavn.cleared.Load() != 1 || f.account.cleared.Load() != 1 {
			t.Error("expected every provider cache to be cleared")
		}
	})

	t.Run("setup config", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := f.run("setup", "config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "[providers.qobuz]") {
			t.Errorf("expected example config, got %s", content)
		}

		if err := f.run("setup", "config", path); err == nil {
			t.Error("expected error when the file exists")
		}
	})

	t.Run("setup database", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("setup", "database"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected missing config error, got %v", err)
		}

		path := filepath.Join(t.TempDir(), "tunex.db")
		f.runner.config.Database.Path = path
		if err := f.run("setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		th.AssertFileExists(t, path)
	})
}
