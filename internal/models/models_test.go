package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/tunex/internal/shared"
)

func TestSongJSON(t *testing.T) {
	t.Run("nullable fields marshal as null", func(t *testing.T) {
		s := Song{ID: "abc", Name: "Kesariya", Type: KindSong, Image: UniformImage("https://img/x.jpg")}
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out := string(data)
		for _, want := range []string{`"audio":null`, `"release_date":null`, `"copyright":null`, `"disc_number":0`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in %s", want, out)
			}
		}
	})

	t.Run("album songs null when not loaded", func(t *testing.T) {
		data, _ := json.Marshal(Album{ID: "1"})
		if !strings.Contains(string(data), `"songs":null`) {
			t.Errorf("expected songs null, got %s", data)
		}
	})

	t.Run("paginated keeps hasNext key", func(t *testing.T) {
		data, _ := json.Marshal(Paginated[Song]{Total: 1, Items: []Song{{ID: "1"}}})
		if !strings.Contains(string(data), `"hasNext":false`) {
			t.Errorf("expected hasNext key, got %s", data)
		}
	})
}

func TestAudioAsset(t *testing.T) {
	a := AudioAsset{{Quality: "low", URL: "l"}, {Quality: "high", URL: "h"}}
	if u, ok := a.URL("low"); !ok || u != "l" {
		t.Errorf("URL(low) = %q, %v", u, ok)
	}
	if _, ok := a.URL("lossless"); ok {
		t.Error("did not expect lossless tier")
	}
	if best, ok := a.Best(); !ok || best.Quality != "high" {
		t.Errorf("Best() = %+v", best)
	}
	if _, ok := AudioAsset(nil).Best(); ok {
		t.Error("nil asset has no best link")
	}
}

func TestParseKind(t *testing.T) {
	tc := map[string]Kind{"song": KindSong, "albums": KindAlbum, "artist": KindArtist, "playlists": KindPlaylist}
	for in, want := range tc {
		if got, ok := ParseKind(in); !ok || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseKind("podcast"); ok {
		t.Error("podcast is not a catalog kind")
	}
}

func TestSession(t *testing.T) {
	t.Run("state text", func(t *testing.T) {
		data, _ := json.Marshal(Session{Provider: "qobuz", Token: "secret", State: Authenticated})
		out := string(data)
		if !strings.Contains(out, `"state":"authenticated"`) {
			t.Errorf("expected textual state, got %s", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("token must not be serialized: %s", out)
		}
	})

	t.Run("record round trip", func(t *testing.T) {
		s := Session{Provider: "qobuz", UserID: "7", DisplayName: "jo", Token: "t", State: Authenticated}
		rec := NewSessionRecord(s)
		if err := rec.Validate(); err != nil {
			t.Fatalf("Validate() = %v", err)
		}
		if got := rec.Session(); got != s {
			t.Errorf("Session() = %+v, want %+v", got, s)
		}
		if !rec.Session().Authenticated() {
			t.Error("restored session should be authenticated")
		}
	})

	t.Run("validation", func(t *testing.T) {
		if err := (&SessionRecord{Provider: "qobuz"}).Validate(); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := NewAppCredential("qobuz", "", "", "bundle").Validate(); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := NewAppCredential("qobuz", "123456789", "s", "bundle").Validate(); err != nil {
			t.Errorf("unexpected error %v", err)
		}
	})
}

func TestSummaries(t *testing.T) {
	if got := NewArtistBase("459320", "Arijit Singh"); got.Type != KindArtist || got.ID != "459320" || got.Name != "Arijit Singh" {
		t.Errorf("unexpected artist summary %+v", got)
	}
	if got := NewAlbumBase("35574826", "Brahmastra"); got.Type != KindAlbum || got.ID != "35574826" {
		t.Errorf("unexpected album summary %+v", got)
	}
}
