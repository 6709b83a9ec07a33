package store

// Sequence hands out strictly increasing product IDs.
// It is owned by a single store and guarded by that store's lock.
type Sequence struct {
	last int64
}

// Next returns the ID the next created product will get. It does not consume it.
func (s *Sequence) Next() int64 {
	return s.last + 1
}

// Observe records id as used. The sequence never moves backwards.
func (s *Sequence) Observe(id int64) {
	if id > s.last {
		s.last = id
	}
}

// Last returns the highest ID observed so far, 0 if none.
func (s *Sequence) Last() int64 {
	return s.last
}
