package rendezvous

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Wait when the other parties did not arrive in time.
var ErrTimeout = errors.New("rendezvous timed out before all parties arrived")

// Barrier is a single-use meeting point for a fixed number of parties. Every
// party calls Wait; all of them are released together once the last one
// arrives. A party that gives up after its timeout still counts as arrived,
// so a late peer is released immediately rather than waiting on its own.
type Barrier struct {
	parties int

	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		parties = 1
	}

	return &Barrier{
		parties: parties,
		release: make(chan struct{}),
	}
}

// NewPairBarrier returns a barrier for the two fetches of a single path.
func NewPairBarrier() *Barrier {
	return NewBarrier(2)
}

// Wait blocks until every party has arrived or the timeout elapses. A
// non-positive timeout waits indefinitely.
func (b *Barrier) Wait(timeout time.Duration) error {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
	}
	b.mu.Unlock()

	if timeout <= 0 {
		<-b.release
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-b.release:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}

// Released reports whether all parties have arrived.
func (b *Barrier) Released() bool {
	select {
	case <-b.release:
		return true
	default:
		return false
	}
}
