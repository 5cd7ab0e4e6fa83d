package search

import (
	"context"
	"fmt"
	"strings"

	"classnet/api/internal/store"
)

// StoreFallback is the degraded-mode searcher: a case-insensitive substring
// scan over the persisted user directory and feed. Always available as long
// as the Local Store is.
type StoreFallback struct {
	store store.Store
}

func NewStoreFallback(s store.Store) *StoreFallback {
	return &StoreFallback{store: s}
}

func (f *StoreFallback) Search(ctx context.Context, q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return nil, 0, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var results []Result

	if q.FilterType == "" || q.FilterType == ResultUser {
		var users []store.User
		if _, err := f.store.Load(ctx, store.KeyAllUsers, &users); err != nil {
			return nil, 0, fmt.Errorf("load user directory: %w", err)
		}
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name), needle) ||
				strings.Contains(strings.ToLower(u.Email), needle) ||
				strings.Contains(strings.ToLower(u.Role), needle) {
				results = append(results, Result{Type: ResultUser, ID: u.ID, Title: u.Name, Snippet: u.Email})
			}
		}
	}

	if q.FilterType == "" || q.FilterType == ResultPost {
		var posts []store.Post
		if _, err := f.store.Load(ctx, store.KeyPosts, &posts); err != nil {
			return nil, 0, fmt.Errorf("load posts: %w", err)
		}
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Content), needle) ||
				strings.Contains(strings.ToLower(p.UserName), needle) {
				results = append(results, Result{Type: ResultPost, ID: p.ID, Title: p.UserName, Snippet: p.Content})
			}
		}
	}

	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}
