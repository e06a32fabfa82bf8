// Saavn response types and mappers into canonical entities.
package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/desertthunder/tunex/internal/media"
	"github.com/desertthunder/tunex/internal/models"
)

type saavnArtistMini struct {
	ID       flexString `json:"id"`
	Name     flexString `json:"name"`
	Role     flexString `json:"role"`
	Type     flexString `json:"type"`
	Image    flexString `json:"image"`
	PermaURL flexString `json:"perma_url"`
}

type saavnArtistMap struct {
	Primary  []saavnArtistMini `json:"primary_artists"`
	Featured []saavnArtistMini `json:"featured_artists"`
	Artists  []saavnArtistMini `json:"artists"`
}

type saavnSongInfo struct {
	Music             flexString     `json:"music"`
	AlbumID           flexString     `json:"album_id"`
	Album             flexString     `json:"album"`
	Label             flexString     `json:"label"`
	EncryptedMediaURL flexString     `json:"encrypted_media_url"`
	AlbumURL          flexString     `json:"album_url"`
	Duration          flexInt        `json:"duration"`
	Copyright         flexString     `json:"copyright_text"`
	ReleaseDate       flexString     `json:"release_date"`
	ArtistMap         saavnArtistMap `json:"artistMap"`
}

type saavnSong struct {
	ID        flexString    `json:"id"`
	Title     flexString    `json:"title"`
	Subtitle  flexString    `json:"subtitle"`
	Type      flexString    `json:"type"`
	PermaURL  flexString    `json:"perma_url"`
	Image     flexString    `json:"image"`
	Language  flexString    `json:"language"`
	Year      flexInt       `json:"year"`
	PlayCount flexInt       `json:"play_count"`
	Explicit  flexBool      `json:"explicit_content"`
	MoreInfo  saavnSongInfo `json:"more_info"`
}

// saavnList is a song list that upstream sends as "" when empty.
type saavnList []saavnSong

func (l *saavnList) UnmarshalJSON(b []byte) error {
	if b = bytes.TrimSpace(b); len(b) == 0 || b[0] != '[' {
		*l = nil
		return nil
	}
	var songs []saavnSong
	if err := json.Unmarshal(b, &songs); err != nil {
		return err
	}
	*l = songs
	return nil
}

type saavnAlbum struct {
	ID        flexString `json:"id"`
	Title     flexString `json:"title"`
	Subtitle  flexString `json:"subtitle"`
	Type      flexString `json:"type"`
	PermaURL  flexString `json:"perma_url"`
	Image     flexString `json:"image"`
	Language  flexString `json:"language"`
	Year      flexInt    `json:"year"`
	PlayCount flexInt    `json:"play_count"`
	Explicit  flexBool   `json:"explicit_content"`
	ListCount flexInt    `json:"list_count"`
	List      saavnList  `json:"list"`
	MoreInfo  struct {
		ArtistMap   saavnArtistMap `json:"artistMap"`
		SongCount   flexInt        `json:"song_count"`
		ReleaseDate flexString     `json:"release_date"`
		Music       flexString     `json:"music"`
	} `json:"more_info"`
}

type saavnPlaylist struct {
	ID         flexString `json:"id"`
	Title      flexString `json:"title"`
	Subtitle   flexString `json:"subtitle"`
	HeaderDesc flexString `json:"header_desc"`
	Type       flexString `json:"type"`
	PermaURL   flexString `json:"perma_url"`
	Image      flexString `json:"image"`
	Explicit   flexBool   `json:"explicit_content"`
	ListCount  flexInt    `json:"list_count"`
	List       saavnList  `json:"list"`
	MoreInfo   struct {
		SongCount flexInt `json:"song_count"`
	} `json:"more_info"`
}

type saavnArtist struct {
	ArtistID      flexString   `json:"artistId"`
	ID            flexString   `json:"id"`
	Name          flexString   `json:"name"`
	Title         flexString   `json:"title"`
	Image         flexString   `json:"image"`
	PermaURL      flexString   `json:"perma_url"`
	FollowerCount flexInt      `json:"follower_count"`
	FanCount      flexInt      `json:"fan_count"`
	Bio           flexString   `json:"bio"`
	TopSongs      []saavnSong  `json:"topSongs"`
	TopAlbums     []saavnAlbum `json:"topAlbums"`
	URLs          struct {
		Overview flexString `json:"overview"`
	} `json:"urls"`
}

type saavnSearch[T any] struct {
	Total   flexInt `json:"total"`
	Start   flexInt `json:"start"`
	Results []T     `json:"results"`
}

type saavnArtistSongs struct {
	TopSongs struct {
		Songs    []saavnSong `json:"songs"`
		Total    flexInt     `json:"total"`
		LastPage *bool       `json:"last_page"`
	} `json:"topSongs"`
}

type saavnArtistAlbums struct {
	TopAlbums struct {
		Albums   []saavnAlbum `json:"albums"`
		Total    flexInt      `json:"total"`
		LastPage *bool        `json:"last_page"`
	} `json:"topAlbums"`
}

type saavnSuggestion struct {
	ID          flexString `json:"id"`
	Title       flexString `json:"title"`
	Subtitle    flexString `json:"subtitle"`
	Type        flexString `json:"type"`
	Image       flexString `json:"image"`
	Description flexString `json:"description"`
	PermaURL    flexString `json:"perma_url"`
	URL         flexString `json:"url"`
}

type saavnSuggestionBucket struct {
	Data     []saavnSuggestion `json:"data"`
	Position *flexInt          `json:"position"`
}

type saavnAutocomplete struct {
	TopQuery  saavnSuggestionBucket `json:"topquery"`
	Songs     saavnSuggestionBucket `json:"songs"`
	Albums    saavnSuggestionBucket `json:"albums"`
	Artists   saavnSuggestionBucket `json:"artists"`
	Playlists saavnSuggestionBucket `json:"playlists"`
}

// saavnMapper turns Saavn payloads into canonical entities.
type saavnMapper struct {
	fallback string
}

func (m saavnMapper) image(url flexString) models.ImageAsset {
	return media.SaavnImages.Tiers(string(url), m.fallback)
}

func (m saavnMapper) artists(am saavnArtistMap) []models.ArtistBase {
	src := am.Primary
	if len(src) == 0 {
		src = am.Artists
	}
	out := make([]models.ArtistBase, 0, len(src))
	for _, a := range src {
		out = append(out, models.NewArtistBase(a.ID.String(), a.Name.text()))
	}
	return out
}

// song maps a song. A present but undecryptable media URL is a mapping error.
func (m saavnMapper) song(raw saavnSong) (models.Song, error) {
	audio, err := media.DecryptSaavn(string(raw.MoreInfo.EncryptedMediaURL))
	if err != nil {
		return models.Song{}, mappingError(Saavn, "song", raw.ID.String(), err)
	}

	return models.Song{
		ID:          raw.ID.String(),
		Name:        raw.Title.text(),
		Type:        models.KindSong,
		Year:        int(raw.Year),
		ReleaseDate: optional(string(raw.MoreInfo.ReleaseDate)),
		Duration:    int(raw.MoreInfo.Duration),
		Explicit:    bool(raw.Explicit),
		Language:    raw.Language.text(),
		Copyright:   optional(string(raw.MoreInfo.Copyright)),
		URL:         raw.PermaURL.String(),
		Album:       models.NewAlbumBase(raw.MoreInfo.AlbumID.String(), raw.MoreInfo.Album.text()),
		Artists:     m.artists(raw.MoreInfo.ArtistMap),
		Image:       m.image(raw.Image),
		Audio:       audio,
	}, nil
}

func (m saavnMapper) songs(raw []saavnSong) ([]models.Song, error) {
	out := make([]models.Song, 0, len(raw))
	for _, r := range raw {
		s, err := m.song(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// album maps an album. Songs stays nil when the payload carries no track list.
func (m saavnMapper) album(raw saavnAlbum) (models.Album, error) {
	album := models.Album{
		ID:          raw.ID.String(),
		Name:        raw.Title.text(),
		Type:        models.KindAlbum,
		Year:        int(raw.Year),
		ReleaseDate: optional(string(raw.MoreInfo.ReleaseDate)),
		Language:    raw.Language.text(),
		Explicit:    bool(raw.Explicit),
		Popularity:  int(raw.PlayCount),
		TotalSongs:  int(raw.MoreInfo.SongCount),
		URL:         raw.PermaURL.String(),
		Image:       m.image(raw.Image),
		Artists:     m.artists(raw.MoreInfo.ArtistMap),
	}
	if album.TotalSongs == 0 {
		album.TotalSongs = max(int(raw.ListCount), len(raw.List))
	}

	if raw.List != nil {
		songs, err := m.songs(raw.List)
		if err != nil {
			return models.Album{}, err
		}
		album.Songs = songs
	}
	return album, nil
}

func (m saavnMapper) playlist(raw saavnPlaylist) (models.Playlist, error) {
	description := raw.HeaderDesc
	if description == "" {
		description = raw.Subtitle
	}

	pl := models.Playlist{
		ID:          raw.ID.String(),
		Name:        raw.Title.text(),
		Description: optional(string(description)),
		Type:        models.KindPlaylist,
		Explicit:    bool(raw.Explicit),
		TotalSongs:  int(raw.ListCount),
		URL:         raw.PermaURL.String(),
		Image:       m.image(raw.Image),
	}
	if pl.TotalSongs == 0 {
		pl.TotalSongs = int(raw.MoreInfo.SongCount)
	}

	if raw.List != nil {
		songs, err := m.songs(raw.List)
		if err != nil {
			return models.Playlist{}, err
		}
		pl.Songs = songs
	}
	return pl, nil
}

func (m saavnMapper) artist(raw saavnArtist) models.Artist {
	id := raw.ArtistID
	if id == "" {
		id = raw.ID
	}
	name := raw.Name
	if name == "" {
		name = raw.Title
	}
	url := raw.URLs.Overview
	if url == "" {
		url = raw.PermaURL
	}
	followers := int(raw.FollowerCount)
	if followers == 0 {
		followers = int(raw.FanCount)
	}

	return models.Artist{
		ID:        id.String(),
		Name:      name.text(),
		Type:      models.KindArtist,
		Bio:       saavnBio(string(raw.Bio)),
		Followers: followers,
		URL:       url.String(),
		Image:     m.image(raw.Image),
	}
}

// saavnBio flattens the JSON-encoded list of bio sections.
func saavnBio(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var sections []struct {
		Title flexString `json:"title"`
		Text  flexString `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return optional(raw)
	}

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if t := s.Text.text(); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	bio := strings.Join(parts, "\n\n")
	return &bio
}

func (m saavnMapper) suggestions(b saavnSuggestionBucket) models.SearchBucket {
	bucket := models.SearchBucket{Results: make([]models.SearchItem, 0, len(b.Data))}
	if b.Position != nil {
		bucket.Position = models.IntPtr(int(*b.Position))
	}
	for _, d := range b.Data {
		description := d.Description
		if description == "" {
			description = d.Subtitle
		}
		url := d.PermaURL
		if url == "" {
			url = d.URL
		}
		kind, _ := models.ParseKind(d.Type.String())
		bucket.Results = append(bucket.Results, models.SearchItem{
			ID:          d.ID.String(),
			Title:       d.Title.text(),
			Type:        kind,
			Description: description.text(),
			URL:         url.String(),
			Image:       m.image(d.Image),
		})
	}
	return bucket
}

func (m saavnMapper) global(raw saavnAutocomplete) *models.GlobalSearchResult {
	return &models.GlobalSearchResult{
		TopQuery:  m.suggestions(raw.TopQuery),
		Songs:     m.suggestions(raw.Songs),
		Albums:    m.suggestions(raw.Albums),
		Artists:   m.suggestions(raw.Artists),
		Playlists: m.suggestions(raw.Playlists),
	}
}

// saavnEmpty reports payloads Saavn uses for missing entities: [], {}, null or an error object.
func saavnEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "[]", "{}":
		return true
	}
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if raw[0] == '{' && json.Unmarshal(raw, &probe) == nil && len(probe.Error) > 0 && string(probe.Error) != "null" {
		return true
	}
	return false
}
