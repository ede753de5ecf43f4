package service

import (
	"context"
	"sync"
)

// Serializer runs operations sharing a key one at a time, in the order they
// were submitted. Operations on different keys run concurrently.
type Serializer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewSerializer creates an empty serializer
func NewSerializer() *Serializer {
	return &Serializer{tails: make(map[string]chan struct{})}
}

// Do waits for every earlier operation on key, then runs fn. If ctx ends
// while waiting, fn is skipped and later operations still wait for the
// earlier ones.
func (s *Serializer) Do(ctx context.Context, key string, fn func() error) error {
	s.mu.Lock()
	prev := s.tails[key]
	mine := make(chan struct{})
	s.tails[key] = mine
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if s.tails[key] == mine {
			delete(s.tails, key)
		}
		s.mu.Unlock()
		close(mine)
	}

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				release()
			}()
			return ctx.Err()
		}
	}
	defer release()
	return fn()
}

// Pending returns the number of keys with queued or running operations
func (s *Serializer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tails)
}
