package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("breaker is open")

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenProbes   = 1
)

// BreakerConfig configures a Breaker. Zero numeric fields take the defaults.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenProbes   int

	// OnStateChange runs after the lock is released, once per transition.
	OnStateChange func(from, to BreakerState)
}

// Breaker stops calls to a provider after consecutive failures and lets a
// limited number of probes through once OpenTimeout has passed.
// A nil *Breaker allows everything.
type Breaker struct {
	mu sync.Mutex

	threshold int
	timeout   time.Duration
	probes    int
	onChange  func(from, to BreakerState)
	now       func() time.Time

	state     BreakerState
	failures  int
	openedAt  time.Time
	inFlight  int
	successes int
}

// NewBreaker returns nil when cfg is disabled.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.HalfOpenProbes < 1 {
		cfg.HalfOpenProbes = defaultHalfOpenProbes
	}
	return &Breaker{
		threshold: cfg.FailureThreshold,
		timeout:   cfg.OpenTimeout,
		probes:    cfg.HalfOpenProbes,
		onChange:  cfg.OnStateChange,
		now:       time.Now,
		state:     BreakerClosed,
	}
}

// Allow reserves a slot for one call. Every nil return must be paired with Record.
func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	from := b.state
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.timeout {
		b.moveTo(BreakerHalfOpen)
	}
	var err error
	switch b.state {
	case BreakerOpen:
		err = ErrBreakerOpen
	case BreakerHalfOpen:
		if b.inFlight >= b.probes {
			err = ErrBreakerOpen
		} else {
			b.inFlight++
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

// Record reports the outcome of a call admitted by Allow.
func (b *Breaker) Record(failed bool) {
	if b == nil {
		return
	}

	b.mu.Lock()
	from := b.state
	switch b.state {
	case BreakerClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		if b.failures >= b.threshold {
			b.moveTo(BreakerOpen)
		}
	case BreakerHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		if failed {
			b.moveTo(BreakerOpen)
			break
		}
		b.successes++
		if b.successes >= b.probes && b.inFlight == 0 {
			b.moveTo(BreakerClosed)
		}
	case BreakerOpen:
		// a call admitted before the trip finished late
		if failed {
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State reports half_open once the open timeout has elapsed, even before the next Allow.
func (b *Breaker) State() BreakerState {
	if b == nil {
		return BreakerClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) moveTo(state BreakerState) {
	b.state = state
	b.inFlight = 0
	b.successes = 0
	switch state {
	case BreakerOpen:
		b.openedAt = b.now()
	case BreakerClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
}

func (b *Breaker) notify(from, to BreakerState) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
