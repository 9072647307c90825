// Package status holds the loading flag and error slot shared by the
// listing fetcher and the bookmark store.
package status

import "sync"

// Source identifies who is loading.
type Source string

const (
	SourceListing   Source = "listing"
	SourceBookmarks Source = "bookmarks"
)

// Surface is safe for concurrent use. The zero value is ready.
type Surface struct {
	mu      sync.RWMutex
	loading map[Source]bool
	err     string
}

// Begin marks src as loading.
func (s *Surface) Begin(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading == nil {
		s.loading = make(map[Source]bool)
	}
	s.loading[src] = true
}

// End clears the loading mark for src.
func (s *Surface) End(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, src)
}

// Loading reports whether any source is loading.
func (s *Surface) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loading) > 0
}

// LoadingFor reports whether src is loading.
func (s *Surface) LoadingFor(src Source) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[src]
}

// SetError replaces the error slot with msg.
func (s *Surface) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// ClearError empties the error slot.
func (s *Surface) ClearError() { s.SetError("") }

// Err returns the current user-facing error, or "".
func (s *Surface) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
