package pe

// span is a half-open byte range [start, start+length) used for both
// file-offset and virtual-address collision checks.
type span struct {
	start  uint32
	length uint32
}

func (s span) end() uint32 {
	return s.start + s.length
}

// collides reports whether s and o share any point of their half-open
// ranges.
func (s span) collides(o span) bool {
	return s.start < o.end() && o.start < s.end()
}

// spanSet is an unordered collection of reserved spans, consulted to
// find the next free offset during allocation.
type spanSet struct {
	spans []span
}

func newSpanSet(reserved ...span) *spanSet {
	return &spanSet{spans: append([]span(nil), reserved...)}
}

func (s *spanSet) add(sp span) {
	s.spans = append(s.spans, sp)
}

func (s *spanSet) collidesAny(sp span) bool {
	for _, existing := range s.spans {
		if sp.collides(existing) {
			return true
		}
	}
	return false
}
