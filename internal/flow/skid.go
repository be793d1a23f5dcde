package flow

// Beat is one element of a stream: a sample and its end-of-burst marker.
type Beat struct {
	Sample int64
	Last   bool
}

// Skid is the single-slot overflow buffer. It holds a live output the
// downstream refused on the cycle the pipeline advanced past it.
type Skid struct {
	beat Beat
	full bool
}

// Full reports whether the slot is occupied.
func (s Skid) Full() bool {
	return s.full
}

// Peek returns the buffered beat and whether the slot is occupied.
func (s Skid) Peek() (Beat, bool) {
	return s.beat, s.full
}

func (s Skid) captured(b Beat) Skid {
	return Skid{beat: b, full: true}
}

func (s Skid) released() Skid {
	return Skid{}
}
