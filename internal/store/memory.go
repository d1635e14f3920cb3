package store

import (
	"context"
	"sort"
	"sync"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

// Memory 是进程内的本地记录缓存，所有查询都在内存里求值。
type Memory struct {
	mu      sync.RWMutex
	movies  map[string]domain.Movie
	sources map[string]domain.MovieSource
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		movies:  make(map[string]domain.Movie, 64),
		sources: make(map[string]domain.MovieSource, 64),
	}
}

func (s *Memory) PutMovie(ctx context.Context, m domain.Movie) error {
	m = record.Normalize(m)
	if err := record.Validate(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[m.ID] = m
	return nil
}

func (s *Memory) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return domain.Movie{}, notFound(domain.RecordTypeMovie, id)
	}
	return m, nil
}

func (s *Memory) DeleteMovie(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return notFound(domain.RecordTypeMovie, id)
	}
	delete(s.movies, id)
	for k, src := range s.sources {
		if src.MovieID == id {
			delete(s.sources, k)
		}
	}
	return nil
}

func (s *Memory) FindMovies(ctx context.Context, q record.Query) ([]domain.Movie, error) {
	if err := checkType(q, domain.RecordTypeMovie); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		if q.MatchMovie(m) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) PutSource(ctx context.Context, src domain.MovieSource) error {
	src = record.NormalizeSource(src)
	if err := record.ValidateSource(src); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[src.MovieID]; !ok {
		return notFound(domain.RecordTypeMovie, src.MovieID)
	}
	s.sources[src.ID] = src
	return nil
}

func (s *Memory) FindSources(ctx context.Context, q record.Query) ([]domain.MovieSource, error) {
	if err := checkType(q, domain.RecordTypeMovieSource); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.MovieSource, 0, len(s.sources))
	for _, src := range s.sources {
		if q.MatchSource(src) {
			out = append(out, src)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) Close() error { return nil }
