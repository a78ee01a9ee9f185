// internal/services/search_session.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/javajoker/party-props-backend/internal/models"
)

// SearchResult is one answered search, tagged with the sequence number it was issued under.
type SearchResult struct {
	Seq      uint64           `json:"seq"`
	Listings []models.Listing `json:"listings"`
}

// SearchSession serializes the searches of one client. Each new search cancels the one in
// flight, and a result is only returned if no newer search was issued meanwhile, so a slow
// early response can never overwrite a later one.
type SearchSession struct {
	searcher Searcher
	debounce time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSearchSession(searcher Searcher, debounce time.Duration) *SearchSession {
	return &SearchSession{searcher: searcher, debounce: debounce}
}

// Search returns ErrSuperseded if another search starts before this one completes.
func (s *SearchSession) Search(ctx context.Context, term string, filters models.SearchFilters) (*SearchResult, error) {
	seq, qctx, cancel := s.begin(ctx)
	defer cancel()

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-timer.C:
		case <-qctx.Done():
			timer.Stop()
			if !s.isLatest(seq) {
				return nil, ErrSuperseded
			}
			return nil, qctx.Err()
		}
	}

	listings, err := s.searcher.Search(qctx, term, filters)
	if !s.isLatest(seq) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	return &SearchResult{Seq: seq, Listings: listings}, nil
}

// Latest is the sequence number of the most recently issued search.
func (s *SearchSession) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close cancels the search in flight, if any.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *SearchSession) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.seq, qctx, cancel
}

func (s *SearchSession) isLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}
