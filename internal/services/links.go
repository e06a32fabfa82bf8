package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/shared"
)

// linkPatterns maps an entity kind to the URL shape that carries its id in the first capture group.
type linkPatterns map[models.Kind]*regexp.Regexp

// extract returns the identifier embedded in link for kind.
func (lp linkPatterns) extract(p Provider, kind models.Kind, link string) (string, error) {
	link = strings.TrimSpace(link)
	re, ok := lp[kind]
	if !ok || link == "" {
		return "", shared.Errorf(shared.KindInvalidLink, "not a %s %s link", p, kind)
	}
	m := re.FindStringSubmatch(link)
	if m == nil || m[1] == "" {
		return "", shared.Errorf(shared.KindInvalidLink, "not a %s %s link", p, kind)
	}
	return m[1], nil
}

func requireID(p Provider, kind models.Kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", shared.Errorf(shared.KindInvalidRequest, "%s %s id is required", p, kind)
	}
	return id, nil
}

func requireQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", shared.Errorf(shared.KindInvalidRequest, "search query is required")
	}
	return query, nil
}

// window returns the items of all selected by offset and limit.
func window[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

// pageQuery encodes p as limit and offset query parameters.
func pageQuery(p pagination.Params) url.Values {
	return url.Values{"limit": {strconv.Itoa(p.Limit)}, "offset": {strconv.Itoa(p.Offset)}}
}
