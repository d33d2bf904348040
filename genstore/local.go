package genstore

import (
	"context"
	"sync"
	"time"
)

type localGen struct {
	gen     uint64
	touched time.Time
}

// LocalGenStore keeps generations in-process.
// Keys whose generation was last bumped more than retention ago are pruned by
// the optional cleanup loop; a pruned key reads as generation 0 again.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]localGen

	retention time.Duration
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

// NewLocalGenStore starts a cleanup loop when both cleanupInterval and
// retention are positive.
func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{
		gens:      make(map[string]localGen),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.loop(cleanupInterval)
	}
	return s
}

func (s *LocalGenStore) loop(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(s.retention)
		case <-s.stop:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[k]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[k]
	e.gen++
	e.touched = now
	s.gens[k] = e
	s.mu.Unlock()
	return e.gen, nil
}

// Cleanup prunes keys not bumped within retention and returns how many were removed.
func (s *LocalGenStore) Cleanup(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-retention)

	removed := 0
	s.mu.Lock()
	for k, e := range s.gens {
		if e.touched.Before(cutoff) {
			delete(s.gens, k)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

func (s *LocalGenStore) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
	})
	return nil
}
