// Qobuz implementation of [Catalog], [Authenticator] and [Streamer]
//
// Every call carries the app id; user calls also carry the session token.
// Stream URLs are signed with the app secret.
package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// Qobuz stream format ids by quality name.
var qobuzFormats = map[string]string{
	"high":      "5",
	"lossless":  "6",
	"hires":     "7",
	"hires_max": "27",
}

// QobuzQualities lists the quality names accepted by [QobuzCatalog.StreamURL].
var QobuzQualities = []string{"high", "lossless", "hires", "hires_max"}

const qobuzPrefix = `qobuz\.com/(?:[a-z]{2}-[a-z]{2}/)?`

var qobuzLinks = linkPatterns{
	models.KindSong:     regexp.MustCompile(qobuzPrefix + `track/(?:[^/?#]+/)*([0-9]+)(?:[/?#]|$)`),
	models.KindAlbum:    regexp.MustCompile(qobuzPrefix + `album/(?:[^/?#]+/)*([0-9a-z]+)(?:[/?#]|$)`),
	models.KindArtist:   regexp.MustCompile(qobuzPrefix + `(?:artist|interpreter)/(?:[^/?#]+/)*([0-9]+)(?:[/?#]|$)`),
	models.KindPlaylist: regexp.MustCompile(qobuzPrefix + `playlist/(?:[^/?#]+/)*([0-9]+)(?:[/?#]|$)`),
}

// QobuzCatalog implements [Catalog] for Qobuz.
type QobuzCatalog struct {
	client *Client
	mapper qobuzMapper
	creds  *qobuzCredentials
	auth   *QobuzAuth
	logger *log.Logger
}

// NewQobuz creates a [QobuzCatalog]. Without a configured app id the
// credentials are extracted from the web bundle on first use.
func NewQobuz(cfg shared.QobuzConfig, d Deps) *QobuzCatalog {
	client := d.newClient(Qobuz, cfg.BaseURL, nil, nil)
	logger := d.log(Qobuz)

	fetcher := d.Fetcher
	if fetcher == nil {
		fetcher = client
	}
	creds := &qobuzCredentials{
		cfg:     cfg,
		client:  client,
		fetcher: fetcher,
		store:   d.Credentials,
		logger:  logger,
	}

	return &QobuzCatalog{
		client: client,
		mapper: qobuzMapper{fallback: d.FallbackImage},
		creds:  creds,
		auth:   newQobuzAuth(client, creds, d.Sessions, cfg.UserAuthToken, logger),
		logger: logger,
	}
}

func (q *QobuzCatalog) Provider() Provider { return Qobuz }

func (q *QobuzCatalog) get(ctx context.Context, path string, query url.Values, out any) error {
	return q.client.Do(ctx, Request{Path: path, Query: query, Auth: q.auth.authorize}, out)
}

// getEntity is get for single-entity endpoints, where a 404 names the missing id.
func (q *QobuzCatalog) getEntity(ctx context.Context, path, kind, id string, query url.Values, out any) error {
	err := q.get(ctx, path, query, out)
	if errors.Is(err, shared.ErrNotFound) {
		return notFound(Qobuz, kind, id)
	}
	return err
}

func (q *QobuzCatalog) Song(ctx context.Context, id string) (*models.Song, error) {
	id, err := requireID(Qobuz, models.KindSong, id)
	if err != nil {
		return nil, err
	}

	var raw qobuzTrack
	if err := q.getEntity(ctx, "track/get", "song", id, url.Values{"track_id": {id}}, &raw); err != nil {
		return nil, err
	}
	song, err := q.mapper.song(raw, nil)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (q *QobuzCatalog) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	return FetchAll(ctx, ids, q.logger, q.Song), nil
}

func (q *QobuzCatalog) Album(ctx context.Context, id string) (*models.Album, error) {
	id, err := requireID(Qobuz, models.KindAlbum, id)
	if err != nil {
		return nil, err
	}

	var raw qobuzAlbum
	if err := q.getEntity(ctx, "album/get", "album", id, url.Values{"album_id": {id}}, &raw); err != nil {
		return nil, err
	}
	album, err := q.mapper.album(raw)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (q *QobuzCatalog) artist(ctx context.Context, id, extra string, p pagination.Params) (*qobuzArtist, error) {
	id, err := requireID(Qobuz, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	query := url.Values{"artist_id": {id}}
	if extra != "" {
		query = pageQuery(p)
		query.Set("artist_id", id)
		query.Set("extra", extra)
	}

	var raw qobuzArtist
	if err := q.getEntity(ctx, "artist/get", "artist", id, query, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, notFound(Qobuz, "artist", id)
	}
	return &raw, nil
}

func (q *QobuzCatalog) Artist(ctx context.Context, id string) (*models.Artist, error) {
	raw, err := q.artist(ctx, id, "", pagination.Params{})
	if err != nil {
		return nil, err
	}
	artist := q.mapper.artist(*raw)
	return &artist, nil
}

func (q *QobuzCatalog) playlist(ctx context.Context, id string, p pagination.Params) (*qobuzPlaylist, error) {
	id, err := requireID(Qobuz, models.KindPlaylist, id)
	if err != nil {
		return nil, err
	}

	query := pageQuery(p)
	query.Set("playlist_id", id)
	query.Set("extra", "tracks")

	var raw qobuzPlaylist
	if err := q.getEntity(ctx, "playlist/get", "playlist", id, query, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (q *QobuzCatalog) Playlist(ctx context.Context, id string, p pagination.Params) (*models.Playlist, error) {
	raw, err := q.playlist(ctx, id, p)
	if err != nil {
		return nil, err
	}
	pl, err := q.mapper.playlist(*raw)
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (q *QobuzCatalog) SongByLink(ctx context.Context, link string) (*models.Song, error) {
	id, err := qobuzLinks.extract(Qobuz, models.KindSong, link)
	if err != nil {
		return nil, err
	}
	return q.Song(ctx, id)
}

func (q *QobuzCatalog) AlbumByLink(ctx context.Context, link string) (*models.Album, error) {
	id, err := qobuzLinks.extract(Qobuz, models.KindAlbum, link)
	if err != nil {
		return nil, err
	}
	return q.Album(ctx, id)
}

func (q *QobuzCatalog) ArtistByLink(ctx context.Context, link string) (*models.Artist, error) {
	id, err := qobuzLinks.extract(Qobuz, models.KindArtist, link)
	if err != nil {
		return nil, err
	}
	return q.Artist(ctx, id)
}

func (q *QobuzCatalog) PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error) {
	id, err := qobuzLinks.extract(Qobuz, models.KindPlaylist, link)
	if err != nil {
		return nil, err
	}
	return q.Playlist(ctx, id, p)
}

func (q *QobuzCatalog) search(ctx context.Context, path, query string, p pagination.Params, out any) error {
	query, err := requireQuery(query)
	if err != nil {
		return err
	}
	params := pageQuery(p)
	params.Set("query", query)
	return q.get(ctx, path, params, out)
}

func (q *QobuzCatalog) SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error) {
	var resp qobuzCatalogSearch
	if err := q.search(ctx, "track/search", query, p, &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return &models.SearchResult[models.Song]{Start: p.Offset, Results: []models.Song{}}, nil
	}
	songs, err := q.mapper.songs(resp.Tracks.Items, nil)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult[models.Song]{Total: int(resp.Tracks.Total), Start: p.Offset, Results: songs}, nil
}

func (q *QobuzCatalog) SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error) {
	var resp qobuzCatalogSearch
	if err := q.search(ctx, "album/search", query, p, &resp); err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return &models.SearchResult[models.Album]{Start: p.Offset, Results: []models.Album{}}, nil
	}
	albums, err := q.mapper.albums(resp.Albums.Items)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult[models.Album]{Total: int(resp.Albums.Total), Start: p.Offset, Results: albums}, nil
}

func (q *QobuzCatalog) SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error) {
	var resp qobuzCatalogSearch
	if err := q.search(ctx, "artist/search", query, p, &resp); err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Artist]{Start: p.Offset, Results: []models.Artist{}}
	if resp.Artists != nil {
		result.Total = int(resp.Artists.Total)
		for _, a := range resp.Artists.Items {
			result.Results = append(result.Results, q.mapper.artist(a))
		}
	}
	return result, nil
}

func (q *QobuzCatalog) SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error) {
	var resp qobuzCatalogSearch
	if err := q.search(ctx, "playlist/search", query, p, &resp); err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Playlist]{Start: p.Offset, Results: []models.Playlist{}}
	if resp.Playlists != nil {
		result.Total = int(resp.Playlists.Total)
		for _, raw := range resp.Playlists.Items {
			pl, err := q.mapper.playlist(raw)
			if err != nil {
				return nil, err
			}
			result.Results = append(result.Results, pl)
		}
	}
	return result, nil
}

// Search uses catalog/search, which answers every kind at once. Qobuz reports
// no top result, so TopQuery is empty.
func (q *QobuzCatalog) Search(ctx context.Context, query string) (*models.GlobalSearchResult, error) {
	var resp qobuzCatalogSearch
	if err := q.search(ctx, "catalog/search", query, pagination.Normalize(pagination.DefaultLimit, 0), &resp); err != nil {
		return nil, err
	}

	empty := func() models.SearchBucket { return models.SearchBucket{Results: []models.SearchItem{}} }
	result := &models.GlobalSearchResult{TopQuery: empty(), Songs: empty(), Albums: empty(), Artists: empty(), Playlists: empty()}

	if resp.Tracks != nil {
		songs, err := q.mapper.songs(resp.Tracks.Items, nil)
		if err != nil {
			return nil, err
		}
		for _, s := range songs {
			result.Songs.Results = append(result.Songs.Results, songItem(s))
		}
	}
	if resp.Albums != nil {
		albums, err := q.mapper.albums(resp.Albums.Items)
		if err != nil {
			return nil, err
		}
		for _, a := range albums {
			result.Albums.Results = append(result.Albums.Results, albumItem(a))
		}
	}
	if resp.Artists != nil {
		for _, a := range resp.Artists.Items {
			result.Artists.Results = append(result.Artists.Results, artistItem(q.mapper.artist(a)))
		}
	}
	if resp.Playlists != nil {
		for _, raw := range resp.Playlists.Items {
			pl, err := q.mapper.playlist(raw)
			if err != nil {
				return nil, err
			}
			result.Playlists.Results = append(result.Playlists.Results, playlistItem(pl))
		}
	}
	return result, nil
}

func (q *QobuzCatalog) ArtistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	raw, err := q.artist(ctx, id, "tracks", p)
	if err != nil {
		return nil, err
	}
	if raw.Tracks == nil {
		page := pagination.Paginate([]models.Song{}, 0, p.Offset, pagination.WithLimit(p.Limit))
		return &page, nil
	}
	songs, err := q.mapper.songs(raw.Tracks.Items, nil)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(songs, int(raw.Tracks.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (q *QobuzCatalog) ArtistAlbums(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Album], error) {
	raw, err := q.artist(ctx, id, "albums", p)
	if err != nil {
		return nil, err
	}
	if raw.Albums == nil {
		page := pagination.Paginate([]models.Album{}, int(raw.AlbumsCount), p.Offset, pagination.WithLimit(p.Limit))
		return &page, nil
	}
	albums, err := q.mapper.albums(raw.Albums.Items)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(albums, int(raw.Albums.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (q *QobuzCatalog) AlbumSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	album, err := q.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(window(album.Songs, p.Offset, p.Limit), album.TotalSongs, p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (q *QobuzCatalog) PlaylistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	raw, err := q.playlist(ctx, id, p)
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	if raw.Tracks != nil {
		if songs, err = q.mapper.songs(raw.Tracks.Items, nil); err != nil {
			return nil, err
		}
	}
	page := pagination.Paginate(songs, int(raw.TracksCount), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

type qobuzFileURL struct {
	URL          string     `json:"url"`
	FormatID     flexInt    `json:"format_id"`
	MimeType     flexString `json:"mime_type"`
	Restrictions []struct {
		Code flexString `json:"code"`
	} `json:"restrictions"`
}

// StreamURL signs a track/getFileUrl request. It needs a user session.
func (q *QobuzCatalog) StreamURL(ctx context.Context, id, quality string) (*models.AudioLink, error) {
	id, err := requireID(Qobuz, models.KindSong, id)
	if err != nil {
		return nil, err
	}
	if quality == "" {
		quality = "lossless"
	}
	format, ok := qobuzFormats[quality]
	if !ok {
		return nil, shared.Errorf(shared.KindInvalidRequest, "unknown qobuz quality %q, want one of %s", quality, strings.Join(QobuzQualities, ", "))
	}
	if q.auth.token() == "" {
		return nil, shared.Errorf(shared.KindUnauthorized, "qobuz streaming requires a logged in user")
	}

	creds, err := q.creds.Get(ctx)
	if err != nil {
		return nil, err
	}

	ts := time.Now().Unix()
	query := url.Values{
		"request_ts":  {strconv.FormatInt(ts, 10)},
		"request_sig": {SignFileURL(id, format, ts, creds.AppSecret)},
		"track_id":    {id},
		"format_id":   {format},
		"intent":      {"stream"},
	}

	var resp qobuzFileURL
	if err := q.get(ctx, "track/getFileUrl", query, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		if len(resp.Restrictions) > 0 {
			return nil, shared.Errorf(shared.KindForbidden, "qobuz track %s is restricted: %s", id, resp.Restrictions[0].Code)
		}
		return nil, notFound(Qobuz, "stream", id)
	}
	return &models.AudioLink{Quality: quality, URL: resp.URL}, nil
}

// Login, Logout, Session and Restore delegate to the catalog's [QobuzAuth].

func (q *QobuzCatalog) Login(ctx context.Context, creds Credentials) (models.Session, error) {
	return q.auth.Login(ctx, creds)
}

func (q *QobuzCatalog) Logout(ctx context.Context) error { return q.auth.Logout(ctx) }

func (q *QobuzCatalog) Session() models.Session { return q.auth.Session() }

func (q *QobuzCatalog) Restore(ctx context.Context) { q.auth.Restore(ctx) }

// ClearCache drops the memoized app credentials.
func (q *QobuzCatalog) ClearCache() {
	q.creds.Clear(context.Background())
}
