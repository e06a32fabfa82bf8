package models

// Kind tags every catalog entity and summary.
type Kind string

const (
	KindSong     Kind = "song"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
)

// ParseKind accepts singular or plural entity names ("song", "songs").
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "song", "songs":
		return KindSong, true
	case "album", "albums":
		return KindAlbum, true
	case "artist", "artists":
		return KindArtist, true
	case "playlist", "playlists":
		return KindPlaylist, true
	}
	return "", false
}

// ImageAsset holds exactly three image URLs. Mappers always fill all three.
type ImageAsset struct {
	Low    string `json:"low"`
	Medium string `json:"medium"`
	High   string `json:"high"`
}

// UniformImage returns an asset whose three tiers are all url.
func UniformImage(url string) ImageAsset {
	return ImageAsset{Low: url, Medium: url, High: url}
}

// AudioLink is one quality tier of a playable stream.
type AudioLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// AudioAsset lists stream URLs from lowest to highest quality.
//
// A nil AudioAsset marshals as null and means no stream could be derived.
type AudioAsset []AudioLink

// URL returns the link for quality, if present.
func (a AudioAsset) URL(quality string) (string, bool) {
	for _, l := range a {
		if l.Quality == quality {
			return l.URL, true
		}
	}
	return "", false
}

// Best returns the highest quality link.
func (a AudioAsset) Best() (AudioLink, bool) {
	if len(a) == 0 {
		return AudioLink{}, false
	}
	return a[len(a)-1], true
}

type ArtistBase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Kind   `json:"type"`
}

type AlbumBase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Kind   `json:"type"`
}

type SongBase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Kind   `json:"type"`
}

// Song is a single track.
//
// Duration is in seconds. Album and Artists are summaries so entities never nest recursively.
type Song struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        Kind         `json:"type"`
	Year        int          `json:"year"`
	ReleaseDate *string      `json:"release_date"`
	Duration    int          `json:"duration"`
	Explicit    bool         `json:"explicit"`
	Language    string       `json:"language"`
	DiscNumber  int          `json:"disc_number"`
	TrackNumber int          `json:"track_number"`
	Copyright   *string      `json:"copyright"`
	URL         string       `json:"url"`
	Album       AlbumBase    `json:"album"`
	Artists     []ArtistBase `json:"artists"`
	Image       ImageAsset   `json:"image"`
	Audio       AudioAsset   `json:"audio"`
}

// Album is a release. Songs is nil unless the album's tracks were loaded.
type Album struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        Kind         `json:"type"`
	Year        int          `json:"year"`
	ReleaseDate *string      `json:"release_date"`
	Language    string       `json:"language"`
	Explicit    bool         `json:"explicit"`
	Popularity  int          `json:"popularity"`
	TotalSongs  int          `json:"total_songs"`
	URL         string       `json:"url"`
	Image       ImageAsset   `json:"image"`
	Artists     []ArtistBase `json:"artists"`
	Songs       []Song       `json:"songs"`
}

type Artist struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      Kind       `json:"type"`
	Bio       *string    `json:"bio"`
	Followers int        `json:"follower_count"`
	URL       string     `json:"url"`
	Image     ImageAsset `json:"image"`
}

// Playlist is a curated or user list. Songs is nil unless loaded.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Type        Kind       `json:"type"`
	Explicit    bool       `json:"explicit"`
	TotalSongs  int        `json:"total_songs"`
	URL         string     `json:"url"`
	Image       ImageAsset `json:"image"`
	Songs       []Song     `json:"songs"`
}

// NewArtistBase builds an artist summary.
func NewArtistBase(id, name string) ArtistBase {
	return ArtistBase{ID: id, Name: name, Type: KindArtist}
}

// NewAlbumBase builds an album summary.
func NewAlbumBase(id, name string) AlbumBase {
	return AlbumBase{ID: id, Name: name, Type: KindAlbum}
}
