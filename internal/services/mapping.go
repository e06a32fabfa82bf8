package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
)

// flexString accepts JSON strings, numbers and booleans. null decodes as "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

func (f flexString) String() string { return string(f) }

// text returns the value with HTML entities decoded.
func (f flexString) text() string { return shared.CleanText(string(f)) }

// flexInt accepts JSON numbers and numeric strings. Blank, null and non-numeric values decode as 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*f = flexInt(parseInt(string(s)))
	return nil
}

// flexBool accepts true/false, "true"/"false", 1/0 and "1"/"0".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "true", "1", "yes", "y":
		*f = true
	default:
		*f = false
	}
	return nil
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// optional returns nil for blank text, otherwise a pointer to the cleaned text.
func optional(s string) *string {
	s = shared.CleanText(s)
	if s == "" {
		return nil
	}
	return &s
}

// yearOf extracts the leading four-digit year of a date such as 2022-07-17.
func yearOf(date string) int {
	if len(date) >= 4 {
		return parseInt(date[:4])
	}
	return 0
}

// songItem, albumItem, artistItem and playlistItem project mapped entities
// into global search hits.
func songItem(s models.Song) models.SearchItem {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}
	return models.SearchItem{ID: s.ID, Title: s.Name, Type: models.KindSong, Description: strings.Join(names, ", "), URL: s.URL, Image: s.Image}
}

func albumItem(a models.Album) models.SearchItem {
	desc := ""
	if len(a.Artists) > 0 {
		desc = a.Artists[0].Name
	}
	return models.SearchItem{ID: a.ID, Title: a.Name, Type: models.KindAlbum, Description: desc, URL: a.URL, Image: a.Image}
}

func artistItem(a models.Artist) models.SearchItem {
	return models.SearchItem{ID: a.ID, Title: a.Name, Type: models.KindArtist, URL: a.URL, Image: a.Image}
}

func playlistItem(p models.Playlist) models.SearchItem {
	desc := ""
	if p.Description != nil {
		desc = *p.Description
	}
	return models.SearchItem{ID: p.ID, Title: p.Name, Type: models.KindPlaylist, Description: desc, URL: p.URL, Image: p.Image}
}
