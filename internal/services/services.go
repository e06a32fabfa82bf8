package services

import (
	"context"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// Provider names one upstream catalog.
type Provider string

const (
	Saavn Provider = "saavn"
	Gaana Provider = "gaana"
	Qobuz Provider = "qobuz"
	Tidal Provider = "tidal"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{Saavn, Gaana, Qobuz, Tidal}

func (p Provider) String() string { return string(p) }

// ParseProvider resolves a provider name. An empty name selects def.
func ParseProvider(name string, def Provider) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return def, nil
	}
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", shared.Errorf(shared.KindInvalidRequest, "unknown provider %q", name)
}

// Catalog is the uniform operation set every provider implements.
//
// Methods return typed [shared.Error] values; implementations never wrap them
// into a different kind.
type Catalog interface {
	// Provider returns the catalog's provider tag.
	Provider() Provider

	Song(ctx context.Context, id string) (*models.Song, error)
	// Songs fetches several songs concurrently. It is best-effort: ids that
	// fail are logged and omitted, and no error is returned for them.
	Songs(ctx context.Context, ids []string) ([]models.Song, error)
	Album(ctx context.Context, id string) (*models.Album, error)
	Artist(ctx context.Context, id string) (*models.Artist, error)
	// Playlist returns playlist metadata with the page of songs selected by p.
	Playlist(ctx context.Context, id string, p pagination.Params) (*models.Playlist, error)

	// The ByLink methods return [shared.ErrInvalidLink] for URLs that do not
	// match the provider's shape for that kind.
	SongByLink(ctx context.Context, link string) (*models.Song, error)
	AlbumByLink(ctx context.Context, link string) (*models.Album, error)
	ArtistByLink(ctx context.Context, link string) (*models.Artist, error)
	PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error)

	SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error)
	SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error)
	SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error)
	SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error)
	// Search runs a combined search across every kind.
	Search(ctx context.Context, query string) (*models.GlobalSearchResult, error)

	ArtistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error)
	ArtistAlbums(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Album], error)
	AlbumSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error)
	PlaylistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error)
}

// Credentials are the inputs of a user login. Either Username and Password,
// or a Token captured from an existing session, must be set.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Authenticator is implemented by catalogs with user sessions.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (models.Session, error)
	Logout(ctx context.Context) error
	Session() models.Session
}

// Streamer resolves a playable URL for a track at a given quality.
type Streamer interface {
	StreamURL(ctx context.Context, id, quality string) (*models.AudioLink, error)
}

// CacheClearer drops process-wide state such as access tokens and extracted app credentials.
type CacheClearer interface {
	ClearCache()
}

// Restorer reloads persisted state, such as a user session, at startup.
type Restorer interface {
	Restore(ctx context.Context)
}

// CredentialStore persists extracted app credentials across restarts.
type CredentialStore interface {
	GetCredential(ctx context.Context, provider string) (*models.AppCredential, error)
	SaveCredential(ctx context.Context, c *models.AppCredential) error
	DeleteCredential(ctx context.Context, provider string) error
}

// SessionStore persists user sessions established through [Authenticator.Login].
type SessionStore interface {
	GetSession(ctx context.Context, provider string) (*models.SessionRecord, error)
	SaveSession(ctx context.Context, r *models.SessionRecord) error
	DeleteSession(ctx context.Context, provider string) error
}
