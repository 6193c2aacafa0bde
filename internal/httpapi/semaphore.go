package httpapi

import "context"

// slots bounds the number of pipeline runs in flight across requests.
type slots struct {
	ch chan struct{}
}

func newSlots(capacity int) *slots {
	return &slots{ch: make(chan struct{}, capacity)}
}

// acquire blocks until a run slot frees up or ctx ends.
func (s *slots) acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *slots) release() {
	<-s.ch
}

// inUse reports how many runs currently hold a slot.
func (s *slots) inUse() int {
	return len(s.ch)
}

func (s *slots) capacity() int {
	return cap(s.ch)
}
