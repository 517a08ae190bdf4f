package engine

import "sync"

// FieldSink is the form the engine writes into. Writes to fields the sink
// does not know are silently ignored or create the field, at the sink's choice.
type FieldSink interface {
	HasField(field FieldRef) bool
	Clear(field FieldRef)
	Enable(field FieldRef)
	SetValue(field FieldRef, value string)
	Value(field FieldRef) string
	FocusedField() (FieldRef, bool)
	// SuggestionText returns the text of the index-th suggestion currently
	// displayed for the bound input.
	SuggestionText(index int) (string, bool)
}

// MemorySink is an in-process FieldSink. Fields are created on first write
// and reported in creation order.
type MemorySink struct {
	mu          sync.Mutex
	order       []FieldRef
	values      map[FieldRef]string
	disabled    map[FieldRef]bool
	focused     FieldRef
	suggestions []string
}

// NewMemorySink creates a sink that already holds the given fields, empty.
func NewMemorySink(fields ...FieldRef) *MemorySink {
	s := &MemorySink{
		values:   make(map[FieldRef]string),
		disabled: make(map[FieldRef]bool),
	}
	for _, f := range fields {
		s.ensure(f)
	}
	return s
}

func (s *MemorySink) ensure(field FieldRef) {
	if _, ok := s.values[field]; ok {
		return
	}
	s.values[field] = ""
	s.order = append(s.order, field)
}

func (s *MemorySink) HasField(field FieldRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[field]
	return ok
}

func (s *MemorySink) Clear(field FieldRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(field)
	s.values[field] = ""
}

func (s *MemorySink) Enable(field FieldRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.disabled, field)
}

// Disable marks a field read-only until the next Enable.
func (s *MemorySink) Disable(field FieldRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(field)
	s.disabled[field] = true
}

func (s *MemorySink) IsDisabled(field FieldRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled[field]
}

func (s *MemorySink) SetValue(field FieldRef, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(field)
	s.values[field] = value
}

func (s *MemorySink) Value(field FieldRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[field]
}

// Focus moves input focus to field; an empty field clears focus.
func (s *MemorySink) Focus(field FieldRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = field
}

func (s *MemorySink) FocusedField() (FieldRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused, s.focused != ""
}

// SetSuggestions replaces the displayed suggestion list.
func (s *MemorySink) SetSuggestions(suggestions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append([]string(nil), suggestions...)
}

func (s *MemorySink) SuggestionText(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.suggestions) {
		return "", false
	}
	return s.suggestions[index], true
}

// Snapshot returns every field and its value in creation order.
func (s *MemorySink) Snapshot() []FieldValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FieldValue, 0, len(s.order))
	for _, f := range s.order {
		out = append(out, FieldValue{Field: f, Value: s.values[f]})
	}
	return out
}

var _ FieldSink = (*MemorySink)(nil)
