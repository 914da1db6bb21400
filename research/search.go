// Package research gathers web citations for an article topic.
package research

import "context"

// Citation is one web source the writing stage may quote.
type Citation struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Searcher executes a query and returns citations.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Citation, error)
}
