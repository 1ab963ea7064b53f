package resume

import "sync"

// Session owns the in-memory draft for one editing session. Edits are
// applied in issue order (last writer wins); Snapshot hands out an
// isolated copy so an in-flight export never observes later edits.
// A session has exactly one editor; the mutex only protects
// Snapshot-vs-Apply memory safety.
type Session struct {
	mu      sync.RWMutex
	current Document
}

// NewSession starts a session around an existing document.
func NewSession(doc Document) *Session {
	doc.Content = doc.Content.Clone()
	return &Session{current: doc}
}

// Apply replaces the draft with the next value.
func (s *Session) Apply(doc Document) {
	doc.Content = doc.Content.Clone()
	s.mu.Lock()
	s.current = doc
	s.mu.Unlock()
}

// Update applies fn to a copy of the draft and stores the result.
// Rendering never goes through Update; it cannot mutate the draft.
func (s *Session) Update(fn func(Document) Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	next.Content = next.Content.Clone()
	next = fn(next)
	next.Content = next.Content.Clone()
	s.current = next
}

// Snapshot returns the draft as of the moment of the call.
func (s *Session) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := s.current
	doc.Content = doc.Content.Clone()
	return doc
}
