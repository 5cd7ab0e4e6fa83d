package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to a
// store scan. meili may be nil when Meilisearch is not configured.
type Service struct {
	meili    *Meili
	fallback *StoreFallback
}

func NewService(meili *Meili, fallback *StoreFallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise scans the store.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to store scan: %v", err)
	}

	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		log.Printf("search: store scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexUser indexes a directory entry (fire-and-forget to Meilisearch).
func (s *Service) IndexUser(u UserRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexUser(u); err != nil {
			log.Printf("search: index user %s: %v", u.ID, err)
		}
	}()
}

// IndexPost indexes a feed post (fire-and-forget to Meilisearch).
func (s *Service) IndexPost(p PostRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPost(p); err != nil {
			log.Printf("search: index post %s: %v", p.ID, err)
		}
	}()
}

// DeletePost removes a feed post from the index (fire-and-forget).
func (s *Service) DeletePost(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeletePost(id); err != nil {
			log.Printf("search: delete post %s: %v", id, err)
		}
	}()
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
