package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxUsers = "classnet_users"
	idxPosts = "classnet_posts"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes. An
// unreachable server is tolerated: the client starts unhealthy and the
// background monitor reconfigures indexes on recovery.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		searchable []string
	}{
		{uid: idxUsers, searchable: []string{"name", "email", "role"}},
		{uid: idxPosts, searchable: []string{"content", "userName"}},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes (or a filtered subset) and merges results.
func (m *Meili) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxUsers, ResultUser},
		{idxPosts, ResultPost},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID: ti.uid,
			Query:    q.Text,
			Limit:    limit,
		})
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxUsers:
		return ResultUser
	case idxPosts:
		return ResultPost
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp, ID: decodeString(hit, "id")}
	switch rtyp {
	case ResultUser:
		r.Title = decodeString(hit, "name")
		r.Snippet = decodeString(hit, "email")
	case ResultPost:
		r.Title = decodeString(hit, "userName")
		r.Snippet = decodeString(hit, "content")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexUser adds or replaces a directory entry in the index.
func (m *Meili) IndexUser(u UserRecord) error {
	if _, err := m.client.Index(idxUsers).AddDocuments([]UserRecord{u}, nil); err != nil {
		return fmt.Errorf("index user %s: %w", u.ID, err)
	}
	return nil
}

// IndexPost adds or replaces a feed post in the index.
func (m *Meili) IndexPost(p PostRecord) error {
	if _, err := m.client.Index(idxPosts).AddDocuments([]PostRecord{p}, nil); err != nil {
		return fmt.Errorf("index post %s: %w", p.ID, err)
	}
	return nil
}

// DeletePost removes a feed post from the index.
func (m *Meili) DeletePost(id string) error {
	if _, err := m.client.Index(idxPosts).DeleteDocument(id, nil); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}
