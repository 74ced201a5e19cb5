package media

import "sync"

// Store keeps uploaded bytes in memory, keyed by media item ID. Nothing is
// written to disk; content lives only as long as its session.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	bytes int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Put stores content under id, replacing any previous value.
func (s *Store) Put(id string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.blobs[id]; ok {
		s.bytes -= int64(len(prev))
	}
	s.blobs[id] = content
	s.bytes += int64(len(content))
}

// Get returns the content stored under id.
func (s *Store) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	return b, ok
}

// Delete drops the content stored under id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.blobs[id]; ok {
		s.bytes -= int64(len(prev))
		delete(s.blobs, id)
	}
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Bytes returns the total stored size.
func (s *Store) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
