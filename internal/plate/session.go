package plate

import (
	"strings"
	"sync"
)

// Session is the accumulation scope across which duplicate plate texts are
// suppressed. It is safe for concurrent use so a live session can be read
// while frames are still being processed.
type Session struct {
	mu    sync.RWMutex
	texts []string
	seen  map[string]struct{}
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{seen: make(map[string]struct{})}
}

// Add records text if it is non-empty (after trimming) and not already present.
// It reports whether the text was newly added.
func (s *Session) Add(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[text]; ok {
		return false
	}
	s.seen[text] = struct{}{}
	s.texts = append(s.texts, text)
	return true
}

// Plates returns a copy of the accumulated texts in first-occurrence order.
// The result is never nil.
func (s *Session) Plates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// Len returns the number of distinct texts recorded.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}
