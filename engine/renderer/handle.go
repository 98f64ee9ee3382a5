package renderer

// VideoSlot owns the strong reference to a device. Sprites only ever hold
// the VideoHandle taken from it.
type VideoSlot struct {
	video Video
}

func NewVideoSlot(v Video) *VideoSlot {
	return &VideoSlot{video: v}
}

func (s *VideoSlot) Handle() VideoHandle {
	return VideoHandle{slot: s}
}

// Invalidate makes every handle taken from the slot resolve to nothing.
func (s *VideoSlot) Invalidate() {
	s.video = nil
}

// VideoHandle is a weak reference to a Video.
type VideoHandle struct {
	slot *VideoSlot
}

func (h VideoHandle) Resolve() (Video, bool) {
	if h.slot == nil || h.slot.video == nil {
		return nil, false
	}
	return h.slot.video, true
}

func (h VideoHandle) Programmable() (ProgrammableVideo, bool) {
	v, ok := h.Resolve()
	if !ok {
		return nil, false
	}
	pv, ok := v.(ProgrammableVideo)
	return pv, ok
}

func (h VideoHandle) FixedFunction() (FixedFunctionVideo, bool) {
	v, ok := h.Resolve()
	if !ok {
		return nil, false
	}
	fv, ok := v.(FixedFunctionVideo)
	return fv, ok
}
