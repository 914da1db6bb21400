package store

import (
	"sort"
	"sync"

	"auto_article_generator/generator"
)

// MemoryStore keeps articles in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	articles map[string]*generator.Article
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]*generator.Article)}
}

func (s *MemoryStore) Save(a *generator.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.articles[a.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(id string) (*generator.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) List(limit int) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, summarize(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
