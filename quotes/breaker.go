package quotes

import (
	"log"
	"sync"
	"time"
)

// State is the state of a Breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker keeps the aggregator away from a provider that is throttling us.
//
// It opens after threshold consecutive trips and stays open for cooldown. The
// first call allowed after the cooldown is a trial call: Reset closes the breaker,
// Trip opens it again.
type Breaker struct {
	mu        sync.Mutex
	state     State
	trips     int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		state:     StateClosed,
		now:       time.Now,
	}
}

// Allow reports whether a call may go through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	log.Println("[breaker] cooldown elapsed, circuit half-open")
	b.state = StateHalfOpen
	return true
}

// Trip records a throttled call.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trips++
	if b.state == StateHalfOpen || b.trips >= b.threshold {
		if b.state != StateOpen {
			log.Printf("[breaker] rate limited %d/%d, circuit open for %v", b.trips, b.threshold, b.cooldown)
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// Reset records a call the provider did not throttle.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		log.Println("[breaker] trial call passed, circuit closed")
	}
	b.state = StateClosed
	b.trips = 0
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RetryAfter returns how long the breaker stays open, zero when it is not open.
func (b *Breaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return 0
	}
	if d := b.cooldown - b.now().Sub(b.openedAt); d > 0 {
		return d
	}
	return 0
}
