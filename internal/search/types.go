// Package search provides full-text search over posts, backed by Meilisearch
// with a document-store regex fallback when the index is unavailable.
package search

// PostRecord is the shape indexed into Meilisearch for a post.
type PostRecord struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Caption string `json:"caption"`
	Image   string `json:"image"`
	Date    string `json:"date"`
}

// Query describes one search request.
type Query struct {
	Text   string
	Email  string // restrict results to a single author, empty means all
	Limit  int
	Offset int
}

// Result is a single post hit.
type Result struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Caption string `json:"caption"`
	Image   string `json:"image"`
	Date    string `json:"date"`
	Snippet string `json:"snippet,omitempty"`
}

// Response is the payload returned to the HTTP layer.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}
