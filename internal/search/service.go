package search

import (
	"context"
	"log"
	"time"

	"plantpal/api/internal/store"
)

// Fallback is the document-store search used when Meilisearch is down.
type Fallback interface {
	SearchPosts(ctx context.Context, text, email string, limit int) ([]store.Post, error)
}

// Service is the facade that tries Meilisearch first and falls back to the
// document store's regex search.
type Service struct {
	meili    *Meili
	fallback Fallback
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, fallback Fallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise the document store.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to store: %v", err)
	}

	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	posts, err := s.fallback.SearchPosts(ctx, q.Text, q.Email, limit)
	if err != nil {
		log.Printf("search: store fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}

	results := make([]Result, 0, len(posts))
	for _, p := range posts {
		results = append(results, Result{
			ID:      p.ID.Hex(),
			Email:   p.Email,
			Caption: p.Caption,
			Image:   p.Image,
			Date:    p.Date.Format(time.RFC3339),
		})
	}
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexPost indexes a post (fire-and-forget to Meilisearch).
func (s *Service) IndexPost(p store.Post) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	record := toRecord(p)
	go func() {
		if err := s.meili.IndexPost(record); err != nil {
			log.Printf("search: index post %s: %v", record.ID, err)
		}
	}()
}

// DeletePost removes a post from the search index (fire-and-forget).
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

// ReindexAll pushes every stored post into Meilisearch. Called at startup when
// the index is reachable.
func (s *Service) ReindexAll(posts []store.Post) {
	if s.meili == nil || !s.meili.Healthy() || len(posts) == 0 {
		return
	}
	records := make([]PostRecord, 0, len(posts))
	for _, p := range posts {
		records = append(records, toRecord(p))
	}
	if err := s.meili.IndexPosts(records); err != nil {
		log.Printf("search: reindex posts: %v", err)
	}
}

func toRecord(p store.Post) PostRecord {
	return PostRecord{
		ID:      p.ID.Hex(),
		Email:   p.Email,
		Caption: p.Caption,
		Image:   p.Image,
		Date:    p.Date.Format(time.RFC3339),
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
