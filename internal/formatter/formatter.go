// package formatter renders catalog entities as JSON, CSV, Markdown or styled text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every accepted [Format].
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat resolves a format name. "md" is accepted for Markdown and an empty name means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour up.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ArtistNames joins artist names with commas.
func ArtistNames(artists []models.ArtistBase) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ToJSON encodes v with two-space indentation and a trailing newline.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// SongsToCSV converts songs to CSV with columns: ID, Name, Artists, Album, Year, Duration, URL
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Year", "Duration", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		year := ""
		if song.Year > 0 {
			year = strconv.Itoa(song.Year)
		}
		record := []string{
			song.ID,
			song.Name,
			ArtistNames(song.Artists),
			song.Album.Name,
			year,
			strconv.Itoa(song.Duration),
			song.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// SongsToMarkdown renders a titled track list, with an optional cover image and description.
func SongsToMarkdown(title, description, imageFilename string, songs []models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", description)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(songs))

	buf.WriteString("## Tracks\n\n")
	for i, song := range songs {
		album := ""
		if song.Album.Name != "" {
			album = fmt.Sprintf(" (%s)", song.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, ArtistNames(song.Artists), song.Name, album, FormatDuration(song.Duration))
	}
	return buf.Bytes()
}

// SongsToText renders a styled, numbered track list under title.
func SongsToText(title string, songs []models.Song) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n\n", Styles.Title(title))
	}
	for i, song := range songs {
		fmt.Fprintf(&buf, "%3d. %s - %s %s\n", i+1, ArtistNames(song.Artists), song.Name, Styles.Help(FormatDuration(song.Duration)))
	}
	if len(songs) == 0 {
		buf.WriteString(Styles.Warn("no songs") + "\n")
	}
	return buf.Bytes()
}

// Renderer writes catalog entities to an [io.Writer] in one [Format].
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a [Renderer].
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format { return r.format }

func (r *Renderer) write(data []byte) error {
	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Renderer) json(v any) error {
	data, err := ToJSON(v)
	if err != nil {
		return err
	}
	return r.write(data)
}

// Songs renders a list of songs.
func (r *Renderer) Songs(title string, songs []models.Song) error {
	switch r.format {
	case FormatJSON:
		return r.json(songs)
	case FormatCSV:
		data, err := SongsToCSV(songs)
		if err != nil {
			return err
		}
		return r.write(data)
	case FormatMarkdown:
		return r.write(SongsToMarkdown(title, "", "", songs))
	}
	return r.write(SongsToText(title, songs))
}

// Song renders a single song. Text output includes its audio links.
func (r *Renderer) Song(song *models.Song) error {
	if r.format != FormatText {
		if r.format == FormatJSON {
			return r.json(song)
		}
		return r.Songs(song.Name, []models.Song{*song})
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", Styles.Title(song.Name))
	fmt.Fprintf(&buf, "%s\n", ArtistNames(song.Artists))
	if song.Album.Name != "" {
		fmt.Fprintf(&buf, "Album: %s\n", song.Album.Name)
	}
	if song.Year > 0 {
		fmt.Fprintf(&buf, "Year: %d\n", song.Year)
	}
	fmt.Fprintf(&buf, "Duration: %s\n", FormatDuration(song.Duration))
	fmt.Fprintf(&buf, "URL: %s\n", song.URL)
	for _, link := range song.Audio {
		fmt.Fprintf(&buf, "  %s %s\n", Styles.Ok(link.Quality), link.URL)
	}
	return r.write(buf.Bytes())
}

// Album renders an album with its songs.
func (r *Renderer) Album(album *models.Album) error {
	switch r.format {
	case FormatJSON:
		return r.json(album)
	case FormatMarkdown:
		desc := ArtistNames(album.Artists)
		if album.Year > 0 {
			desc += fmt.Sprintf(" (%d)", album.Year)
		}
		return r.write(SongsToMarkdown(album.Name, desc, "", album.Songs))
	}
	title := album.Name
	if names := ArtistNames(album.Artists); names != "" && r.format == FormatText {
		title += " by " + names
	}
	return r.Songs(title, album.Songs)
}

// Artist renders an artist profile.
func (r *Renderer) Artist(artist *models.Artist) error {
	var buf bytes.Buffer
	switch r.format {
	case FormatJSON:
		return r.json(artist)
	case FormatCSV:
		writer := csv.NewWriter(&buf)
		writer.Write([]string{"ID", "Name", "Followers", "URL"})
		writer.Write([]string{artist.ID, artist.Name, strconv.Itoa(artist.Followers), artist.URL})
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("CSV writer error: %w", err)
		}
	case FormatMarkdown:
		fmt.Fprintf(&buf, "# %s\n\n", artist.Name)
		if artist.Bio != nil {
			fmt.Fprintf(&buf, "%s\n\n", *artist.Bio)
		}
		fmt.Fprintf(&buf, "**Followers**: %d\n", artist.Followers)
	default:
		fmt.Fprintf(&buf, "%s\n", Styles.Title(artist.Name))
		if artist.Followers > 0 {
			fmt.Fprintf(&buf, "Followers: %d\n", artist.Followers)
		}
		fmt.Fprintf(&buf, "URL: %s\n", artist.URL)
		if artist.Bio != nil {
			fmt.Fprintf(&buf, "\n%s\n", Styles.Help(*artist.Bio))
		}
	}
	return r.write(buf.Bytes())
}

// Albums renders a list of albums without their songs.
func (r *Renderer) Albums(title string, albums []models.Album) error {
	var buf bytes.Buffer
	switch r.format {
	case FormatJSON:
		return r.json(albums)
	case FormatCSV:
		writer := csv.NewWriter(&buf)
		writer.Write([]string{"ID", "Name", "Artists", "Year", "Songs", "URL"})
		for _, a := range albums {
			writer.Write([]string{a.ID, a.Name, ArtistNames(a.Artists), strconv.Itoa(a.Year), strconv.Itoa(a.TotalSongs), a.URL})
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("CSV writer error: %w", err)
		}
	case FormatMarkdown:
		fmt.Fprintf(&buf, "# %s\n\n", title)
		for _, a := range albums {
			fmt.Fprintf(&buf, "- [%s](%s) (%d)\n", a.Name, a.URL, a.Year)
		}
	default:
		if title != "" {
			fmt.Fprintf(&buf, "%s\n\n", Styles.Title(title))
		}
		for i, a := range albums {
			fmt.Fprintf(&buf, "%3d. %s %s\n", i+1, a.Name, Styles.Help(fmt.Sprintf("%d, %d songs", a.Year, a.TotalSongs)))
		}
		if len(albums) == 0 {
			buf.WriteString(Styles.Warn("no albums") + "\n")
		}
	}
	return r.write(buf.Bytes())
}

// Playlist renders a playlist with the loaded page of songs.
func (r *Renderer) Playlist(pl *models.Playlist) error {
	switch r.format {
	case FormatJSON:
		return r.json(pl)
	case FormatMarkdown:
		desc := ""
		if pl.Description != nil {
			desc = *pl.Description
		}
		return r.write(SongsToMarkdown(pl.Name, desc, "", pl.Songs))
	}
	return r.Songs(fmt.Sprintf("%s (%d songs)", pl.Name, pl.TotalSongs), pl.Songs)
}

// Search renders a combined search result, one section per non-empty bucket.
func (r *Renderer) Search(result *models.GlobalSearchResult) error {
	if r.format == FormatJSON {
		return r.json(result)
	}

	sections := []struct {
		name   string
		bucket models.SearchBucket
	}{
		{"Top result", result.TopQuery},
		{"Songs", result.Songs},
		{"Albums", result.Albums},
		{"Artists", result.Artists},
		{"Playlists", result.Playlists},
	}

	if r.format == FormatCSV {
		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)
		writer.Write([]string{"Section", "ID", "Type", "Title", "Description", "URL"})
		for _, s := range sections {
			for _, item := range s.bucket.Results {
				writer.Write([]string{s.name, item.ID, string(item.Type), item.Title, item.Description, item.URL})
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("CSV writer error: %w", err)
		}
		return r.write(buf.Bytes())
	}

	var buf bytes.Buffer
	for _, s := range sections {
		if len(s.bucket.Results) == 0 {
			continue
		}
		if r.format == FormatMarkdown {
			fmt.Fprintf(&buf, "## %s\n\n", s.name)
		} else {
			fmt.Fprintf(&buf, "%s\n", Styles.Title(s.name))
		}
		for _, item := range s.bucket.Results {
			line := item.Title
			if item.Description != "" {
				line += " - " + item.Description
			}
			if r.format == FormatMarkdown {
				fmt.Fprintf(&buf, "- [%s](%s)\n", line, item.URL)
			} else {
				fmt.Fprintf(&buf, "  %s %s\n", line, Styles.Help(item.ID))
			}
		}
		buf.WriteString("\n")
	}
	if buf.Len() == 0 {
		buf.WriteString(Styles.Warn("no results") + "\n")
	}
	return r.write(buf.Bytes())
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md for a track list and, when
// imageURL is set, {dir}/cover.jpg. A failed cover download is reported in
// Warnings and does not fail the export.
func WriteMarkdownExport(ctx context.Context, client *http.Client, dir, title, description, imageURL string, songs []models.Song) (*MarkdownExportResult, []error, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}
	var warnings []error

	var cover string
	if imageURL != "" {
		data, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			warnings = append(warnings, err)
		} else {
			path := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				warnings = append(warnings, fmt.Errorf("failed to save cover image: %w", err))
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, SongsToMarkdown(title, description, cover, songs), 0644); err != nil {
		return nil, warnings, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, warnings, nil
}
