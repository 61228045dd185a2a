package memory

// ActiveSet is the session's working set of long-term memory documents
// surfaced as relevant so far. It only grows; it is never persisted.
//
// Documents are kept in insertion order so prompts are reproducible, although
// callers must not rely on any particular order.
type ActiveSet struct {
	order []string
	seen  map[string]struct{}
}

// NewActiveSet creates an empty working set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{seen: make(map[string]struct{})}
}

// Add inserts doc and reports whether it was new.
func (s *ActiveSet) Add(doc string) bool {
	if _, ok := s.seen[doc]; ok {
		return false
	}
	s.seen[doc] = struct{}{}
	s.order = append(s.order, doc)
	return true
}

// Contains reports whether doc is in the set.
func (s *ActiveSet) Contains(doc string) bool {
	_, ok := s.seen[doc]
	return ok
}

// Documents returns a copy of the set's members.
func (s *ActiveSet) Documents() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of documents in the set.
func (s *ActiveSet) Len() int {
	return len(s.order)
}

// ShortTermBuffer is the session's ordered turn log ("User: ..." and
// "Bot: ..." lines). It is append-only and has no eviction: long sessions grow
// the prompt without bound.
type ShortTermBuffer struct {
	lines []string
}

// Append adds a line to the end of the buffer.
func (b *ShortTermBuffer) Append(line string) {
	b.lines = append(b.lines, line)
}

// Lines returns a copy of the buffer in insertion order.
func (b *ShortTermBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of lines in the buffer.
func (b *ShortTermBuffer) Len() int {
	return len(b.lines)
}
