// Saavn implementation of [Catalog]
//
// Every call goes to a single endpoint selected by the __call parameter.
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// saavnArtistPageSize is the fixed page size of the artist song and album lists.
const saavnArtistPageSize = 10

var saavnLinks = linkPatterns{
	models.KindSong:     regexp.MustCompile(`jiosaavn\.com/song/[^/?#]+/([^/?#]+)`),
	models.KindAlbum:    regexp.MustCompile(`jiosaavn\.com/album/[^/?#]+/([^/?#]+)`),
	models.KindArtist:   regexp.MustCompile(`jiosaavn\.com/artist/[^/?#]+/([^/?#]+)`),
	models.KindPlaylist: regexp.MustCompile(`jiosaavn\.com/(?:featured|s/playlist)/[^?#]*/([^/?#]+)`),
}

// SaavnCatalog implements [Catalog] for JioSaavn.
type SaavnCatalog struct {
	client *Client
	mapper saavnMapper
	logger *log.Logger
}

// NewSaavn creates a [SaavnCatalog].
func NewSaavn(cfg shared.SaavnConfig, d Deps) *SaavnCatalog {
	defaults := url.Values{
		"_format":     {"json"},
		"_marker":     {"0"},
		"api_version": {"4"},
		"ctx":         {"web6dot0"},
	}
	headers := http.Header{"Referer": {"https://www.jiosaavn.com/"}}

	return &SaavnCatalog{
		client: d.newClient(Saavn, cfg.BaseURL, defaults, headers),
		mapper: saavnMapper{fallback: d.FallbackImage},
		logger: d.log(Saavn),
	}
}

func (s *SaavnCatalog) Provider() Provider { return Saavn }

// call invokes an upstream operation. It reports false when Saavn answers with its empty shape.
func (s *SaavnCatalog) call(ctx context.Context, op string, params url.Values, out any) (bool, error) {
	query := url.Values{"__call": {op}}
	for k, v := range params {
		query[k] = v
	}

	var raw json.RawMessage
	if err := s.client.Get(ctx, "", query, &raw); err != nil {
		return false, err
	}
	if saavnEmpty(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, shared.NewError(shared.KindUpstream, "malformed saavn response for "+op, err)
	}
	return true, nil
}

func (s *SaavnCatalog) songFrom(ctx context.Context, op string, params url.Values, id string) (*models.Song, error) {
	var resp struct {
		Songs []saavnSong `json:"songs"`
	}
	found, err := s.call(ctx, op, params, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Songs) == 0 {
		return nil, notFound(Saavn, "song", id)
	}

	song, err := s.mapper.song(resp.Songs[0])
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (s *SaavnCatalog) Song(ctx context.Context, id string) (*models.Song, error) {
	id, err := requireID(Saavn, models.KindSong, id)
	if err != nil {
		return nil, err
	}
	return s.songFrom(ctx, "song.getDetails", url.Values{"pids": {id}}, id)
}

func (s *SaavnCatalog) Songs(ctx context.Context, ids []string) ([]models.Song, error) {
	return FetchAll(ctx, ids, s.logger, s.Song), nil
}

func (s *SaavnCatalog) albumFrom(ctx context.Context, op string, params url.Values, id string) (*models.Album, error) {
	var raw saavnAlbum
	found, err := s.call(ctx, op, params, &raw)
	if err != nil {
		return nil, err
	}
	if !found || raw.ID == "" {
		return nil, notFound(Saavn, "album", id)
	}

	album, err := s.mapper.album(raw)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (s *SaavnCatalog) Album(ctx context.Context, id string) (*models.Album, error) {
	id, err := requireID(Saavn, models.KindAlbum, id)
	if err != nil {
		return nil, err
	}
	return s.albumFrom(ctx, "content.getAlbumDetails", url.Values{"albumid": {id}}, id)
}

func (s *SaavnCatalog) artistFrom(ctx context.Context, op string, params url.Values, id string) (*models.Artist, error) {
	var raw saavnArtist
	found, err := s.call(ctx, op, params, &raw)
	if err != nil {
		return nil, err
	}
	if !found || (raw.ArtistID == "" && raw.ID == "" && raw.Name == "") {
		return nil, notFound(Saavn, "artist", id)
	}

	artist := s.mapper.artist(raw)
	if artist.ID == "" {
		artist.ID = id
	}
	return &artist, nil
}

func (s *SaavnCatalog) Artist(ctx context.Context, id string) (*models.Artist, error) {
	id, err := requireID(Saavn, models.KindArtist, id)
	if err != nil {
		return nil, err
	}
	params := url.Values{"artistId": {id}, "n_song": {"10"}, "n_album": {"10"}, "page": {"0"}}
	return s.artistFrom(ctx, "artist.getArtistPageDetails", params, id)
}

func (s *SaavnCatalog) playlistFrom(ctx context.Context, op string, params url.Values, id string, p pagination.Params) (*models.Playlist, error) {
	params.Set("n", strconv.Itoa(p.Limit))
	params.Set("p", strconv.Itoa(p.Page))

	var raw saavnPlaylist
	found, err := s.call(ctx, op, params, &raw)
	if err != nil {
		return nil, err
	}
	if !found || raw.ID == "" {
		return nil, notFound(Saavn, "playlist", id)
	}

	pl, err := s.mapper.playlist(raw)
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (s *SaavnCatalog) Playlist(ctx context.Context, id string, p pagination.Params) (*models.Playlist, error) {
	id, err := requireID(Saavn, models.KindPlaylist, id)
	if err != nil {
		return nil, err
	}
	return s.playlistFrom(ctx, "playlist.getDetails", url.Values{"listid": {id}}, id, p)
}

// webapi resolves a share-link token through webapi.get.
func (s *SaavnCatalog) webapi(kind models.Kind, link string) (url.Values, string, error) {
	token, err := saavnLinks.extract(Saavn, kind, link)
	if err != nil {
		return nil, "", err
	}
	return url.Values{"token": {token}, "type": {string(kind)}}, token, nil
}

func (s *SaavnCatalog) SongByLink(ctx context.Context, link string) (*models.Song, error) {
	params, token, err := s.webapi(models.KindSong, link)
	if err != nil {
		return nil, err
	}
	return s.songFrom(ctx, "webapi.get", params, token)
}

func (s *SaavnCatalog) AlbumByLink(ctx context.Context, link string) (*models.Album, error) {
	params, token, err := s.webapi(models.KindAlbum, link)
	if err != nil {
		return nil, err
	}
	return s.albumFrom(ctx, "webapi.get", params, token)
}

func (s *SaavnCatalog) ArtistByLink(ctx context.Context, link string) (*models.Artist, error) {
	params, token, err := s.webapi(models.KindArtist, link)
	if err != nil {
		return nil, err
	}
	params.Set("n_song", "10")
	params.Set("n_album", "10")
	return s.artistFrom(ctx, "webapi.get", params, token)
}

func (s *SaavnCatalog) PlaylistByLink(ctx context.Context, link string, p pagination.Params) (*models.Playlist, error) {
	params, token, err := s.webapi(models.KindPlaylist, link)
	if err != nil {
		return nil, err
	}
	return s.playlistFrom(ctx, "webapi.get", params, token, p)
}

func saavnSearchParams(query string, p pagination.Params) url.Values {
	return url.Values{"q": {query}, "p": {strconv.Itoa(p.Page)}, "n": {strconv.Itoa(p.Limit)}}
}

func (s *SaavnCatalog) SearchSongs(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Song], error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}

	var raw saavnSearch[saavnSong]
	if _, err := s.call(ctx, "search.getResults", saavnSearchParams(query, p), &raw); err != nil {
		return nil, err
	}
	songs, err := s.mapper.songs(raw.Results)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult[models.Song]{Total: int(raw.Total), Start: int(raw.Start), Results: songs}, nil
}

func (s *SaavnCatalog) SearchAlbums(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Album], error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}

	var raw saavnSearch[saavnAlbum]
	if _, err := s.call(ctx, "search.getAlbumResults", saavnSearchParams(query, p), &raw); err != nil {
		return nil, err
	}
	albums := make([]models.Album, 0, len(raw.Results))
	for _, r := range raw.Results {
		a, err := s.mapper.album(r)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return &models.SearchResult[models.Album]{Total: int(raw.Total), Start: int(raw.Start), Results: albums}, nil
}

func (s *SaavnCatalog) SearchArtists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Artist], error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}

	var raw saavnSearch[saavnArtist]
	if _, err := s.call(ctx, "search.getArtistResults", saavnSearchParams(query, p), &raw); err != nil {
		return nil, err
	}
	artists := make([]models.Artist, 0, len(raw.Results))
	for _, r := range raw.Results {
		artists = append(artists, s.mapper.artist(r))
	}
	return &models.SearchResult[models.Artist]{Total: int(raw.Total), Start: int(raw.Start), Results: artists}, nil
}

func (s *SaavnCatalog) SearchPlaylists(ctx context.Context, query string, p pagination.Params) (*models.SearchResult[models.Playlist], error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}

	var raw saavnSearch[saavnPlaylist]
	if _, err := s.call(ctx, "search.getPlaylistResults", saavnSearchParams(query, p), &raw); err != nil {
		return nil, err
	}
	playlists := make([]models.Playlist, 0, len(raw.Results))
	for _, r := range raw.Results {
		pl, err := s.mapper.playlist(r)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}
	return &models.SearchResult[models.Playlist]{Total: int(raw.Total), Start: int(raw.Start), Results: playlists}, nil
}

func (s *SaavnCatalog) Search(ctx context.Context, query string) (*models.GlobalSearchResult, error) {
	query, err := requireQuery(query)
	if err != nil {
		return nil, err
	}

	var raw saavnAutocomplete
	if _, err := s.call(ctx, "autocomplete.get", url.Values{"query": {query}}, &raw); err != nil {
		return nil, err
	}
	return s.mapper.global(raw), nil
}

// ArtistSongs pages through an artist's songs. Upstream pages are 0-based and
// fixed at ten items; last_page, when present, decides hasNext.
func (s *SaavnCatalog) ArtistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	id, err := requireID(Saavn, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	page := pagination.Normalize(saavnArtistPageSize, p.Offset)
	params := url.Values{"artistId": {id}, "page": {strconv.Itoa(page.ZeroPage())}, "sort_order": {"asc"}, "category": {"popularity"}}

	var raw saavnArtistSongs
	if _, err := s.call(ctx, "artist.getArtistMoreSong", params, &raw); err != nil {
		return nil, err
	}
	songs, err := s.mapper.songs(raw.TopSongs.Songs)
	if err != nil {
		return nil, err
	}

	start := page.ZeroPage() * saavnArtistPageSize
	opts := []pagination.Option{pagination.WithLimit(saavnArtistPageSize)}
	if raw.TopSongs.LastPage != nil {
		opts = append(opts, pagination.WithHasNext(!*raw.TopSongs.LastPage))
	}
	result := pagination.Paginate(songs, int(raw.TopSongs.Total), start, opts...)
	return &result, nil
}

func (s *SaavnCatalog) ArtistAlbums(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Album], error) {
	id, err := requireID(Saavn, models.KindArtist, id)
	if err != nil {
		return nil, err
	}

	page := pagination.Normalize(saavnArtistPageSize, p.Offset)
	params := url.Values{"artistId": {id}, "page": {strconv.Itoa(page.ZeroPage())}, "sort_order": {"asc"}, "category": {"popularity"}}

	var raw saavnArtistAlbums
	if _, err := s.call(ctx, "artist.getArtistMoreAlbum", params, &raw); err != nil {
		return nil, err
	}
	albums := make([]models.Album, 0, len(raw.TopAlbums.Albums))
	for _, r := range raw.TopAlbums.Albums {
		a, err := s.mapper.album(r)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}

	start := page.ZeroPage() * saavnArtistPageSize
	opts := []pagination.Option{pagination.WithLimit(saavnArtistPageSize)}
	if raw.TopAlbums.LastPage != nil {
		opts = append(opts, pagination.WithHasNext(!*raw.TopAlbums.LastPage))
	}
	result := pagination.Paginate(albums, int(raw.TopAlbums.Total), start, opts...)
	return &result, nil
}

// AlbumSongs loads the whole album and returns the requested window of it.
func (s *SaavnCatalog) AlbumSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	album, err := s.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	result := pagination.Paginate(window(album.Songs, p.Offset, p.Limit), len(album.Songs), p.Offset, pagination.WithLimit(p.Limit))
	return &result, nil
}

// PlaylistSongs returns one upstream page. Pages are 1-based and aligned to the limit.
func (s *SaavnCatalog) PlaylistSongs(ctx context.Context, id string, p pagination.Params) (*models.Paginated[models.Song], error) {
	pl, err := s.Playlist(ctx, id, p)
	if err != nil {
		return nil, err
	}
	start := (p.Page - 1) * p.Limit
	result := pagination.Paginate(pl.Songs, pl.TotalSongs, start, pagination.WithLimit(p.Limit))
	return &result, nil
}
