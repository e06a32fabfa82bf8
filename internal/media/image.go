package media

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
)

// ImageTemplate describes how a provider encodes image size in its URLs.
type ImageTemplate struct {
	// Pattern matches every spelling of the size token.
	Pattern *regexp.Regexp
	// Sizes are the tokens for the low, medium and high tiers.
	Sizes [3]string
	// Sentinels are substrings marking a placeholder image.
	Sentinels []string
}

var (
	SaavnImages = ImageTemplate{
		Pattern:   regexp.MustCompile(`150x150|50x50`),
		Sizes:     [3]string{"50x50", "150x150", "500x500"},
		Sentinels: []string{"default"},
	}
	GaanaImages = ImageTemplate{
		Pattern:   regexp.MustCompile(`size_[sml]`),
		Sizes:     [3]string{"size_s", "size_m", "size_l"},
		Sentinels: []string{"/images/default"},
	}
)

// Tiers derives the three image tiers of url, or returns fallback on every tier
// when url is blank or a placeholder.
func (t ImageTemplate) Tiers(url, fallback string) models.ImageAsset {
	url = strings.TrimSpace(url)
	if url == "" || t.isPlaceholder(url) {
		return models.UniformImage(fallback)
	}

	url = Secure(url)
	if !t.Pattern.MatchString(url) {
		return models.UniformImage(url)
	}
	return models.ImageAsset{
		Low:    t.Pattern.ReplaceAllLiteralString(url, t.Sizes[0]),
		Medium: t.Pattern.ReplaceAllLiteralString(url, t.Sizes[1]),
		High:   t.Pattern.ReplaceAllLiteralString(url, t.Sizes[2]),
	}
}

func (t ImageTemplate) isPlaceholder(url string) bool {
	for _, s := range t.Sentinels {
		if strings.Contains(url, s) {
			return true
		}
	}
	return false
}

// Images builds an asset from separately supplied tier URLs.
//
// A missing tier borrows its nearest present neighbour; if none is present every tier is fallback.
func Images(low, medium, high, fallback string, sentinels ...string) models.ImageAsset {
	tiers := []string{clean(low, sentinels), clean(medium, sentinels), clean(high, sentinels)}

	present := ""
	for _, u := range tiers {
		if u != "" {
			present = u
			break
		}
	}
	if present == "" {
		return models.UniformImage(fallback)
	}

	for i := range tiers {
		if tiers[i] != "" {
			present = tiers[i]
			continue
		}
		tiers[i] = present
	}
	return models.ImageAsset{Low: tiers[0], Medium: tiers[1], High: tiers[2]}
}

func clean(url string, sentinels []string) string {
	url = strings.TrimSpace(url)
	for _, s := range sentinels {
		if url != "" && strings.Contains(url, s) {
			return ""
		}
	}
	return Secure(url)
}

// Tidal image sizes per entity, low to high.
var (
	TidalAlbumSizes    = [3]int{160, 320, 640}
	TidalArtistSizes   = [3]int{160, 320, 750}
	TidalPlaylistSizes = [3]int{160, 320, 480}
)

// TidalImages builds the asset of a Tidal image id such as
// "ab12cd34-...", which resolves to resources.tidal.com/images/ab12cd34/.../WxH.jpg.
func TidalImages(id string, sizes [3]int, fallback string) models.ImageAsset {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.UniformImage(fallback)
	}

	base := "https://resources.tidal.com/images/" + strings.ReplaceAll(id, "-", "/") + "/"
	tier := func(n int) string { return base + strconv.Itoa(n) + "x" + strconv.Itoa(n) + ".jpg" }
	return models.ImageAsset{Low: tier(sizes[0]), Medium: tier(sizes[1]), High: tier(sizes[2])}
}
