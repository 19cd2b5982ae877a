package core

// limiter.go bounds how many conversions run at once.
//
// Each conversion holds a semaphore slot from the moment its upload is
// accepted until its archives are written. When every slot is taken a new
// request waits up to maxWait, then fails with ErrTooManyConversions. On
// shutdown Close refuses new work and WaitForDrain blocks until the running
// conversions finish.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/entityexport/internal/metrics"
)

// ErrTooManyConversions is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyConversions = errors.New("too many conversions in progress, please try again later")

// ErrShuttingDown is returned by Acquire after Close.
var ErrShuttingDown = errors.New("service is shutting down")

// DefaultMaxConcurrentConversions is the default limit for parallel conversions.
const DefaultMaxConcurrentConversions = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ConversionLimiter is a counting semaphore with drain support.
type ConversionLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu      sync.Mutex
	active  int
	closed  bool
	drained chan struct{} // closed whenever active drops to zero
}

// NewConversionLimiter allows at most maxConcurrent simultaneous conversions.
// Non-positive arguments select the defaults.
func NewConversionLimiter(maxConcurrent int, maxWait time.Duration) *ConversionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentConversions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	drained := make(chan struct{})
	close(drained)

	return &ConversionLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		drained:   drained,
	}
}

// Acquire waits for a slot. The caller must call Release exactly once after
// a nil return.
func (l *ConversionLimiter) Acquire(ctx context.Context) error {
	if l.isClosed() {
		return ErrShuttingDown
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		return l.admit()
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyConversions
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *ConversionLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		return l.admit() == nil
	default:
		return false
	}
}

// admit records a slot taken from the semaphore, giving it back if the
// limiter closed in the meantime.
func (l *ConversionLimiter) admit() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.semaphore
		return ErrShuttingDown
	}
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()

	metrics.ConversionsInFlight.Inc()
	return nil
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ConversionLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.drained)
	}
	l.mu.Unlock()

	metrics.ConversionsInFlight.Dec()
	<-l.semaphore
}

// Close makes every later Acquire fail with ErrShuttingDown. Running
// conversions are unaffected.
func (l *ConversionLimiter) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *ConversionLimiter) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// ActiveCount returns the number of running conversions.
func (l *ConversionLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ConversionLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ConversionLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no conversion is running or ctx is done.
func (l *ConversionLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter for health output.
type LimiterStatus struct {
	Active        int  `json:"active"`
	Available     int  `json:"available"`
	MaxConcurrent int  `json:"max_concurrent"`
	Closed        bool `json:"closed"`
}

// Status returns the current limiter state.
func (l *ConversionLimiter) Status() LimiterStatus {
	l.mu.Lock()
	active, closed := l.active, l.closed
	l.mu.Unlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
		Closed:        closed,
	}
}
