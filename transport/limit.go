package transport

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrQueueFull is returned when the request queue limit is reached.
	ErrQueueFull = errors.New("transport: request queue is full")

	// ErrAcquireTimeout is returned when waiting for a request slot times out.
	ErrAcquireTimeout = errors.New("transport: timeout waiting for a request slot")
)

// semaphore limits the number of requests in flight. Requests beyond the
// limit queue client-side up to maxQueue.
type semaphore struct {
	sem       chan struct{}
	queueSize atomic.Int32
	maxQueue  int
	timeout   time.Duration
}

// newSemaphore creates a semaphore.
// maxQueue < 0 means unbounded, 0 means no queue.
func newSemaphore(maxInFlight, maxQueue int, timeout time.Duration) *semaphore {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &semaphore{
		sem:      make(chan struct{}, maxInFlight),
		maxQueue: maxQueue,
		timeout:  timeout,
	}
}

// Acquire blocks until a slot is available or timeout/cancel.
func (s *semaphore) Acquire(ctx context.Context) error {
	// Free slot: take it without counting against the queue.
	select {
	case s.sem <- struct{}{}:
		return nil
	default:
	}

	qLen := s.queueSize.Add(1)
	defer s.queueSize.Add(-1)

	if s.maxQueue >= 0 && int(qLen) > s.maxQueue {
		return ErrQueueFull
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrAcquireTimeout
	}
}

// Release returns a slot. It must only be called after a successful Acquire.
func (s *semaphore) Release() {
	select {
	case <-s.sem:
	default:
	}
}

// InFlight returns the number of slots currently held.
func (s *semaphore) InFlight() int {
	return len(s.sem)
}

// WithMaxConcurrent caps the number of requests in flight through this
// transport. Excess requests wait up to timeout in a queue of at most maxQueue.
//
// The slot is held until the response headers arrive, not until the body is consumed.
func WithMaxConcurrent(n, maxQueue int, timeout time.Duration) HTTPTransportOption {
	sem := newSemaphore(n, maxQueue, timeout)
	return WithMiddleware(func(req *http.Request, next RoundTripFunc) (*http.Response, error) {
		if err := sem.Acquire(req.Context()); err != nil {
			return nil, err
		}
		defer sem.Release()
		return next(req)
	})
}

// WithRateLimit limits outgoing requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) HTTPTransportOption {
	limiter := rate.NewLimiter(r, burst)
	return WithMiddleware(func(req *http.Request, next RoundTripFunc) (*http.Response, error) {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next(req)
	})
}
