package mapview

// Handle identifies a marker owned by the controller. Handles are never
// reused: releasing a slot bumps its generation so stale handles are
// detectable.
type Handle struct {
	index uint32
	gen   uint32
}

// Index returns the slot index, useful as a stable map key for renderers.
func (h Handle) Index() int {
	return int(h.index)
}

type slot struct {
	gen  uint32
	used bool
}

// arena hands out marker handles from a free list of indexed slots.
type arena struct {
	slots []slot
	free  []uint32
	live  int
}

func (a *arena) alloc() Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	a.slots[idx].used = true
	a.live++
	return Handle{index: idx, gen: a.slots[idx].gen}
}

// release frees h. It reports false for handles that are stale or unknown.
func (a *arena) release(h Handle) bool {
	if !a.valid(h) {
		return false
	}
	s := &a.slots[h.index]
	s.used = false
	s.gen++
	a.free = append(a.free, h.index)
	a.live--
	return true
}

func (a *arena) valid(h Handle) bool {
	if int(h.index) >= len(a.slots) {
		return false
	}
	s := a.slots[h.index]
	return s.used && s.gen == h.gen
}
