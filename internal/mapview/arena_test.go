package mapview

import "testing"

func TestArena_ReuseBumpsGeneration(t *testing.T) {
	var a arena

	h1 := a.alloc()
	if !a.valid(h1) {
		t.Fatal("fresh handle is not valid")
	}
	if !a.release(h1) {
		t.Fatal("release() = false for live handle")
	}
	if a.release(h1) {
		t.Error("double release succeeded")
	}

	h2 := a.alloc()
	if h2.Index() != h1.Index() {
		t.Errorf("slot not reused: %d vs %d", h2.Index(), h1.Index())
	}
	if a.valid(h1) {
		t.Error("stale handle still valid after slot reuse")
	}
	if a.live != 1 {
		t.Errorf("live = %d, want 1", a.live)
	}
}

func TestArena_UnknownHandle(t *testing.T) {
	var a arena
	if a.valid(Handle{index: 7}) {
		t.Error("unknown handle reported valid")
	}
}
