package mesh

import (
	"sync"
	"testing"
)

func TestPendingResolve(t *testing.T) {
	p := newPending[bool]()

	ch := p.register(42)
	if !p.resolve(42, true) {
		t.Fatal("resolve() = false, want true")
	}
	if got := <-ch; !got {
		t.Error("received false, want true")
	}
	if p.size() != 0 {
		t.Errorf("size() = %d, want 0", p.size())
	}
}

func TestPendingResolveExactlyOnce(t *testing.T) {
	p := newPending[bool]()

	p.register(42)
	if !p.resolve(42, true) {
		t.Fatal("first resolve() = false")
	}
	if p.resolve(42, false) {
		t.Error("second resolve() = true, want false")
	}
}

func TestPendingResolveUnknownID(t *testing.T) {
	p := newPending[bool]()
	if p.resolve(99, true) {
		t.Error("resolve() of unregistered id = true")
	}
}

func TestPendingAbandon(t *testing.T) {
	p := newPending[[]RouteHop]()

	p.register(7)
	if !p.abandon(7) {
		t.Fatal("abandon() = false, want true")
	}
	if p.resolve(7, nil) {
		t.Error("resolve() after abandon = true, want false")
	}
	if p.size() != 0 {
		t.Errorf("size() = %d, want 0", p.size())
	}
}

func TestPendingAbandonAfterResolve(t *testing.T) {
	p := newPending[bool]()

	ch := p.register(7)
	p.resolve(7, true)

	// The slot was consumed by resolve; abandon must report that so the
	// waiter knows to drain the channel.
	if p.abandon(7) {
		t.Error("abandon() after resolve = true, want false")
	}
	if got := <-ch; !got {
		t.Error("buffered result lost")
	}
}

func TestPendingArbitrationRace(t *testing.T) {
	// Timeout and reply racing on the same slot: exactly one side must
	// win, never both, never neither.
	p := newPending[bool]()

	for i := range 1000 {
		id := uint32(i + 1)
		ch := p.register(id)

		var wg sync.WaitGroup
		var resolved, abandoned bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			resolved = p.resolve(id, true)
		}()
		go func() {
			defer wg.Done()
			abandoned = p.abandon(id)
		}()
		wg.Wait()

		if resolved == abandoned {
			t.Fatalf("id %d: resolved=%v abandoned=%v, want exactly one", id, resolved, abandoned)
		}
		if resolved {
			select {
			case <-ch:
			default:
				t.Fatalf("id %d: resolved but no result buffered", id)
			}
		}
	}

	if p.size() != 0 {
		t.Errorf("size() = %d, want 0 after races", p.size())
	}
}

func TestPendingIndependentSlots(t *testing.T) {
	p := newPending[bool]()

	ch1 := p.register(1)
	ch2 := p.register(2)

	p.resolve(2, false)

	select {
	case <-ch1:
		t.Error("slot 1 received a result meant for slot 2")
	default:
	}
	if got := <-ch2; got {
		t.Error("slot 2 received true, want false")
	}
	if p.size() != 1 {
		t.Errorf("size() = %d, want 1", p.size())
	}
}
