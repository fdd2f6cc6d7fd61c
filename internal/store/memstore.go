package store

import "sync"

// MemStore implements Store in memory: fast paths for tests and for
// runs that skip the on-disk ledger.
type MemStore struct {
	mu     sync.Mutex
	runs   []*Run
	nextID int64
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

// RecordRun appends a finished run and returns its ID.
func (s *MemStore) RecordRun(r *Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.ID = s.nextID
	s.nextID++
	s.runs = append(s.runs, &cp)
	r.ID = cp.ID
	return cp.ID, nil
}

// GetRun fetches one run by ID; nil if absent.
func (s *MemStore) GetRun(id int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

// LastRun fetches the most recently recorded run; nil if none.
func (s *MemStore) LastRun() (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil, nil
	}
	cp := *s.runs[len(s.runs)-1]
	return &cp, nil
}

// ListRuns fetches up to limit runs, newest first.
func (s *MemStore) ListRuns(limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Run
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *s.runs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
