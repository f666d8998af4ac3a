package mesh

import "sync"

// pending is a registry of single-use completion slots keyed by packet id.
// One party registers a slot and waits on its channel; the other resolves
// it by id. Remove-if-present arbitration guarantees each slot is consumed
// exactly once: whichever side removes the slot from the map owns it, so a
// timeout and a late reply can never both fire.
type pending[T any] struct {
	mu    sync.Mutex
	slots map[uint32]chan T
}

func newPending[T any]() *pending[T] {
	return &pending[T]{slots: make(map[uint32]chan T)}
}

// register creates a slot for the given id and returns its channel. A
// stale slot under the same id is discarded; packet ids are random enough
// that this only happens when a previous waiter timed out long ago.
func (p *pending[T]) register(id uint32) <-chan T {
	ch := make(chan T, 1)
	p.mu.Lock()
	p.slots[id] = ch
	p.mu.Unlock()
	return ch
}

// resolve delivers a result to the slot registered under id, if any.
// Returns true when a waiter existed.
func (p *pending[T]) resolve(id uint32, result T) bool {
	p.mu.Lock()
	ch, ok := p.slots[id]
	if ok {
		delete(p.slots, id)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- result // buffered, never blocks
	return true
}

// abandon removes the slot registered under id without resolving it.
// Returns true when the slot was still present, meaning no result had
// been delivered.
func (p *pending[T]) abandon(id uint32) bool {
	p.mu.Lock()
	_, ok := p.slots[id]
	if ok {
		delete(p.slots, id)
	}
	p.mu.Unlock()
	return ok
}

// size returns the number of outstanding slots.
func (p *pending[T]) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
