package guard

import (
	"context"
	"golang.org/x/sync/semaphore"
	"sync/atomic"
)

// PermitPool is a counting semaphore bounding the number of operations in flight.
// Its capacity is fixed at construction. Waiters are not served in any guaranteed order.
type PermitPool struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// NewPermitPool creates a pool with the given capacity (at least 1)
func NewPermitPool(capacity int) *PermitPool {
	capacity = max(1, capacity)
	return &PermitPool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a permit is available or ctx is done.
// On success the caller must call Release exactly once.
func (p *PermitPool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.inFlight.Add(1)
	return nil
}

// TryAcquire acquires a permit without blocking and reports whether it succeeded
func (p *PermitPool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.inFlight.Add(1)
	return true
}

// Release returns a permit to the pool. Releasing more permits than acquired panics.
func (p *PermitPool) Release() {
	if p.inFlight.Add(-1) < 0 {
		p.inFlight.Add(1)
		panic("guard: permit released without being acquired")
	}
	p.sem.Release(1)
}

// Capacity returns the total number of permits
func (p *PermitPool) Capacity() int {
	return p.capacity
}

// InFlight returns the number of permits currently held
func (p *PermitPool) InFlight() int {
	return int(p.inFlight.Load())
}

// Available returns the number of permits currently free
func (p *PermitPool) Available() int {
	return p.capacity - p.InFlight()
}
