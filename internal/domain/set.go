package domain

// IDSet is a set of entity identifiers. It backs the per-user membership
// sets (saved events, joined clubs, RSVPs, managed clubs). The zero value
// is not usable; construct with NewIDSet.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given identifiers, dropping duplicates
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Remove deletes id from the set
func (s IDSet) Remove(id string) {
	delete(s, id)
}

// Len returns the number of members
func (s IDSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the members as a slice in unspecified order
func (s IDSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
