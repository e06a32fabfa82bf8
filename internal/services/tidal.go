// Tidal implementation of [Catalog] and [Streamer]
//
// Catalog calls authenticate with a client-credentials token from
// [TokenManager]. Streaming needs a user token from config.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// Tidal audio quality names accepted by [TidalCatalog.StreamURL].
var tidalQualities = map[string]string{
	"low":      "LOW",
	"high":     "HIGH",
	"lossless": "LOSSLESS",
	"hi_res":   "HI_RES_LOSSLESS",
}

const tidalBTS = "application/vnd.tidal.bts"

var tidalLinks = linkPatterns{
	models.KindSong:     regexp.MustCompile(`tidal\.com/(?:browse/)?track/(\d+)`),
	models.KindAlbum:    regexp.MustCompile(`tidal\.com/(?:browse/)?album/(\d+)`),
	models.KindArtist:   regexp.MustCompile(`tidal\.com/(?:browse/)?artist/(\d+)`),
	models.KindPlaylist: regexp.MustCompile(`tidal\.com/(?:browse/)?playlist/([0-9a-fA-F-]{36})`),
}

// TidalCatalog implements [Catalog] for Tidal.
type TidalCatalog struct {
	client    *Client
	mapper    tidalMapper
	tokens    *TokenManager
	userToken string
	logger    *log.Logger
}

// NewTidal creates a [TidalCatalog]. Missing client credentials surface as a
// configuration error on the first call.
func NewTidal(cfg shared.TidalConfig, d Deps) *TidalCatalog {
	country := cfg.CountryCode
	if country == "" {
		country = "US"
	}
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = "https://auth.tidal.com/v1/oauth2/token"
	}

	logger := d.log(Tidal)
	return &TidalCatalog{
		client:    d.newClient(Tidal, cfg.BaseURL, url.Values{"countryCode": {country}}, nil),
		mapper:    tidalMapper{fallback: d.FallbackImage},
		tokens:    NewTokenManager(cfg.ClientID, cfg.ClientSecret, authURL, d.HTTPClient, logger),
		userToken: cfg.UserToken,
		logger:    logger,
	}
}

func (t *TidalCatalog) Provider() Provider { return Tidal }

func (t *TidalCatalog) authorize(ctx context.Context, header http.Header, _ url.Values) error {
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return err
	}
	header.Set("Authorization", "Bearer "+token)
	return nil
}

func (t *TidalCatalog) get(ctx context.Context, path string, query url.Values, out any) error {
	return t.client.Do(ctx, Request{Path: path, Query: query, Auth: t.authorize}, out)
}

// getEntity is get for single-entity endpoints, where a 404 names the missing id.
func (t *TidalCatalog) getEntity(ctx context.Context, path, kind, id string, query url.Values, out any) error {
	err := t.get(ctx, path, query, out)
	if errors.Is(err, shared.ErrNotFound) {
		return notFound(Tidal, kind, id)
	}
	return err
}

func (t *TidalCatalog) Song(ctx context.Context, id string) (*models.Song, error) {
	id, err := requireID(Tidal, models.KindSong, id)
	if err != nil {
		return nil, err
	}

	var raw tidalTrack
	if err := t.getEntity(ctx, "tracks/"+url.PathEscape(id), "song", id, nil, &raw); err != nil {
		return nil, err
	}
	song, err := t.mapper.song(raw)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (t *TidalCatalog) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	return FetchAll(ctx, ids, t.logger, t.Song), nil
}

func (t *TidalCatalog) albumTracks(ctx context.Context, id string, p pagination.Params) (*tidalPage[tidalTrack], error) {
	var page tidalPage[tidalTrack]
	if err := t.getEntity(ctx, "albums/"+url.PathEscape(id)+"/tracks", "album", id, pageQuery(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Album loads the album with its first page of up to [pagination.MaxLimit] tracks.
func (t *TidalCatalog) Album(ctx context.Context, id string) (*models.Album, error) {
	id, err := requireID(Tidal, models.KindAlbum, id)
	if err != nil {
		return nil, err
	}

	var raw tidalAlbum
	if err := t.getEntity(ctx, "albums/"+url.PathEscape(id), "album", id, nil, &raw); err != nil {
		return nil, err
	}
	album, err := t.mapper.album(raw)
	if err != nil {
		return nil, err
	}

	tracks, err := t.albumTracks(ctx, id, pagination.Normalize(pagination.MaxLimit, 0))
	if err != nil {
		return nil, err
	}
	if album.Songs, err = t.mapper.songs(tracks.Items); err != nil {
		return nil, err
	}
	return &album, nil
}

func (t *TidalCatalog) Artist(ctx context.Context, id string) (*models.Artist, error) {
	id, err := requireID(Tidal, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	var raw tidalArtist
	if err := t.getEntity(ctx, "artists/"+url.PathEscape(id), "artist", id, nil, &raw); err != nil {
		return nil, err
	}
	artist := t.mapper.artist(raw)
	artist.Bio = t.bio(ctx, id)
	return &artist, nil
}

// bio returns the artist biography, or nil when Tidal has none.
func (t *TidalCatalog) bio(ctx context.Context, id string) *string {
	var resp struct {
		Text flexString `json:"text"`
	}
	if err := t.get(ctx, "artists/"+url.PathEscape(id)+"/bio", nil, &resp); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			t.logger.Debug("artist bio unavailable", "id", id, "err", err)
		}
		return nil
	}
	return optional(tidalBioMarkup.ReplaceAllString(string(resp.Text), "$1"))
}

// tidalBioMarkup matches the [wimpLink ...]text[/wimpLink] references in biographies.
var tidalBioMarkup = regexp.MustCompile(`\[wimpLink[^\]]*\]([^\[]*)\[/wimpLink\]`)

func playlistUUID(id string) (string, error) {
	id, err := requireID(Tidal, models.KindPlaylist, id)
	if err != nil {
		return "", err
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", shared.NewError(shared.KindInvalidRequest, "tidal playlist id must be a uuid", err)
	}
	return u.String(), nil
}

func (t *TidalCatalog) playlistTracks(ctx context.Context, id string, p pagination.Params) (*tidalPage[tidalTrack], error) {
	var page tidalPage[tidalTrack]
	if err := t.getEntity(ctx, "playlists/"+id+"/tracks", "playlist", id, pageQuery(p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (t *TidalCatalog) Playlist(ctx context.Context, id string, p pagination.Params) (*models.Playlist, error) {
	id, err := playlistUUID(id)
	if err != nil {
		return nil, err
	}

	var raw tidalPlaylist
	if err := t.getEntity(ctx, "playlists/"+id, "playlist", id, nil, &raw); err != nil {
		return nil, err
	}
	pl := t.mapper.playlist(raw)

	tracks, err := t.playlistTracks(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if pl.Songs, err = t.mapper.songs(tracks.Items); err != nil {
		return nil, err
	}
	for _, s := range pl.Songs {
		pl.Explicit = pl.Explicit || s.Explicit
	}
	return &pl, nil
}

func (t *TidalCatalog) SongByLink(ctx context.Context, link string) (*models.Song, error) {
	id, err := tidalLinks.extract(Tidal, models.KindSong, link)
	if err != nil {
		return nil, err
	}
	return t.Song(ctx, id)
}

func (t *TidalCatalog) AlbumByLink(ctx context.Context, link string) (*models.Album, error) {
	id, err := tidalLinks.extract(Tidal, models.KindAlbum, link)
	if err != nil {
		return nil, err
	}
	return t.Album(ctx, id)
}

func (t *TidalCatalog) ArtistByLink(ctx context.Context, link string) (*models.Artist, error) {
	id, err := tidalLinks.extract(Tidal, models.KindArtist, link)
	if err != nil {
		return nil, err
	}
	return t.Artist(ctx, id)
}

func (t *TidalCatalog) PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error) {
	id, err := tidalLinks.extract(Tidal, models.KindPlaylist, link)
	if err != nil {
		return nil, err
	}
	return t.Playlist(ctx, id, p)
}

func (t *TidalCatalog) search(ctx context.Context, types, query string, p pagination.Params) (*tidalSearch, error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}
	params := pageQuery(p)
	params.Set("query", query)
	params.Set("types", types)

	var resp tidalSearch
	if err := t.get(ctx, "search", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *TidalCatalog) SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error) {
	resp, err := t.search(ctx, "TRACKS", query, p)
	if err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Song]{Start: p.Offset, Results: []models.Song{}}
	if resp.Tracks != nil {
		result.Total = int(resp.Tracks.Total)
		if result.Results, err = t.mapper.songs(resp.Tracks.Items); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *TidalCatalog) SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error) {
	resp, err := t.search(ctx, "ALBUMS", query, p)
	if err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Album]{Start: p.Offset, Results: []models.Album{}}
	if resp.Albums != nil {
		result.Total = int(resp.Albums.Total)
		if result.Results, err = t.mapper.albums(resp.Albums.Items); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *TidalCatalog) SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error) {
	resp, err := t.search(ctx, "ARTISTS", query, p)
	if err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Artist]{Start: p.Offset, Results: []models.Artist{}}
	if resp.Artists != nil {
		result.Total = int(resp.Artists.Total)
		for _, a := range resp.Artists.Items {
			result.Results = append(result.Results, t.mapper.artist(a))
		}
	}
	return result, nil
}

func (t *TidalCatalog) SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error) {
	resp, err := t.search(ctx, "PLAYLISTS", query, p)
	if err != nil {
		return nil, err
	}
	result := &models.SearchResult[models.Playlist]{Start: p.Offset, Results: []models.Playlist{}}
	if resp.Playlists != nil {
		result.Total = int(resp.Playlists.Total)
		for _, raw := range resp.Playlists.Items {
			result.Results = append(result.Results, t.mapper.playlist(raw))
		}
	}
	return result, nil
}

// Search asks for every kind in one call. The top hit, when present, is the
// only entry of TopQuery.
func (t *TidalCatalog) Search(ctx context.Context, query string) (*models.GlobalSearchResult, error) {
	resp, err := t.search(ctx, "TRACKS,ALBUMS,ARTISTS,PLAYLISTS", query, pagination.Normalize(pagination.DefaultLimit, 0))
	if err != nil {
		return nil, err
	}

	empty := func() models.SearchBucket { return models.SearchBucket{Results: []models.SearchItem{}} }
	result := &models.GlobalSearchResult{TopQuery: empty(), Songs: empty(), Albums: empty(), Artists: empty(), Playlists: empty()}

	if resp.TopHit != nil {
		if item, ok := t.mapper.topHit(string(resp.TopHit.Type), resp.TopHit.Value); ok {
			result.TopQuery = models.SearchBucket{Position: models.IntPtr(0), Results: []models.SearchItem{item}}
		}
	}
	if resp.Tracks != nil {
		songs, err := t.mapper.songs(resp.Tracks.Items)
		if err != nil {
			return nil, err
		}
		for _, s := range songs {
			result.Songs.Results = append(result.Songs.Results, songItem(s))
		}
	}
	if resp.Albums != nil {
		albums, err := t.mapper.albums(resp.Albums.Items)
		if err != nil {
			return nil, err
		}
		for _, a := range albums {
			result.Albums.Results = append(result.Albums.Results, albumItem(a))
		}
	}
	if resp.Artists != nil {
		for _, a := range resp.Artists.Items {
			result.Artists.Results = append(result.Artists.Results, artistItem(t.mapper.artist(a)))
		}
	}
	if resp.Playlists != nil {
		for _, raw := range resp.Playlists.Items {
			result.Playlists.Results = append(result.Playlists.Results, playlistItem(t.mapper.playlist(raw)))
		}
	}
	return result, nil
}

func (t *TidalCatalog) ArtistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	id, err := requireID(Tidal, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	var raw tidalPage[tidalTrack]
	if err := t.getEntity(ctx, "artists/"+url.PathEscape(id)+"/toptracks", "artist", id, pageQuery(p), &raw); err != nil {
		return nil, err
	}
	songs, err := t.mapper.songs(raw.Items)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(songs, int(raw.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (t *TidalCatalog) ArtistAlbums(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Album], error) {
	id, err := requireID(Tidal, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	var raw tidalPage[tidalAlbum]
	if err := t.getEntity(ctx, "artists/"+url.PathEscape(id)+"/albums", "artist", id, pageQuery(p), &raw); err != nil {
		return nil, err
	}
	albums, err := t.mapper.albums(raw.Items)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(albums, int(raw.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (t *TidalCatalog) AlbumSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	id, err := requireID(Tidal, models.KindAlbum, id)
	if err != nil {
		return nil, err
	}
	raw, err := t.albumTracks(ctx, id, p)
	if err != nil {
		return nil, err
	}
	songs, err := t.mapper.songs(raw.Items)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(songs, int(raw.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

func (t *TidalCatalog) PlaylistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	id, err := playlistUUID(id)
	if err != nil {
		return nil, err
	}
	raw, err := t.playlistTracks(ctx, id, p)
	if err != nil {
		return nil, err
	}
	songs, err := t.mapper.songs(raw.Items)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(songs, int(raw.Total), p.Offset, pagination.WithLimit(p.Limit))
	return &page, nil
}

type tidalPlayback struct {
	TrackID          flexString `json:"trackId"`
	AudioQuality     flexString `json:"audioQuality"`
	ManifestMimeType string     `json:"manifestMimeType"`
	Manifest         string     `json:"manifest"`
}

type tidalManifest struct {
	MimeType string   `json:"mimeType"`
	Codecs   string   `json:"codecs"`
	URLs     []string `json:"urls"`
}

// StreamURL resolves a direct stream through the playback info endpoint. It
// needs the user token from config and only understands BTS manifests.
func (t *TidalCatalog) StreamURL(ctx context.Context, id, quality string) (*models.AudioLink, error) {
	id, err := requireID(Tidal, models.KindSong, id)
	if err != nil {
		return nil, err
	}
	if quality == "" {
		quality = "high"
	}
	level, ok := tidalQualities[quality]
	if !ok {
		return nil, shared.Errorf(shared.KindInvalidRequest, "unknown tidal quality %q", quality)
	}
	if t.userToken == "" {
		return nil, shared.Errorf(shared.KindUnauthorized, "tidal streaming requires a user token")
	}

	query := url.Values{
		"audioquality":      {level},
		"playbackmode":      {"STREAM"},
		"assetpresentation": {"FULL"},
	}
	auth := func(_ context.Context, header http.Header, _ url.Values) error {
		header.Set("Authorization", "Bearer "+t.userToken)
		return nil
	}

	var resp tidalPlayback
	err = t.client.Do(ctx, Request{Path: "tracks/" + url.PathEscape(id) + "/playbackinfopostpaywall", Query: query, Auth: auth}, &resp)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, notFound(Tidal, "stream", id)
	}
	if err != nil {
		return nil, err
	}

	if resp.ManifestMimeType != tidalBTS {
		return nil, shared.Errorf(shared.KindUpstream, "unsupported tidal manifest type %q", resp.ManifestMimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Manifest)
	if err != nil {
		return nil, mappingError(Tidal, "stream", id, err)
	}
	var manifest tidalManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, mappingError(Tidal, "stream", id, err)
	}
	if len(manifest.URLs) == 0 {
		return nil, notFound(Tidal, "stream", id)
	}

	got := quality
	for name, lvl := range tidalQualities {
		if strings.EqualFold(lvl, string(resp.AudioQuality)) {
			got = name
		}
	}
	return &models.AudioLink{Quality: got, URL: manifest.URLs[0]}, nil
}

// ClearCache drops the cached access token.
func (t *TidalCatalog) ClearCache() { t.tokens.ClearCache() }
