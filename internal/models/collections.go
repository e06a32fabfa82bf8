package models

// Paginated is one page of a larger collection.
//
// HasNext is offset+len(Items) < Total unless the provider knows better or cannot report a total.
type Paginated[T any] struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
	Items   []T  `json:"items"`
}

// SearchResult is the result of searching a single entity kind.
type SearchResult[T any] struct {
	Total   int `json:"total"`
	Start   int `json:"start"`
	Results []T `json:"results"`
}

// SearchItem is a compact hit of a global search.
type SearchItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Type        Kind       `json:"type"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Image       ImageAsset `json:"image"`
}

// SearchBucket groups hits of one kind. Position is the provider's display rank when reported.
type SearchBucket struct {
	Position *int         `json:"position"`
	Results  []SearchItem `json:"results"`
}

// GlobalSearchResult holds the buckets of a combined search across every kind.
type GlobalSearchResult struct {
	TopQuery  SearchBucket `json:"top_query"`
	Songs     SearchBucket `json:"songs"`
	Albums    SearchBucket `json:"albums"`
	Artists   SearchBucket `json:"artists"`
	Playlists SearchBucket `json:"playlists"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
