package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultUser ResultType = "user"
	ResultPost ResultType = "post"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a search over the directory and feed.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexUser(u UserRecord) error
	IndexPost(p PostRecord) error
	DeletePost(id string) error
}

// UserRecord is the data we index for a directory entry.
type UserRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PostRecord is the data we index for a feed post.
type PostRecord struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	UserName string `json:"userName"`
}
