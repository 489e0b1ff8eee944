package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Do while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// FailureThreshold consecutive failures open the circuit
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before one probe is let through
	Cooldown time.Duration
	// OnStateChange is called, outside the lock, whenever the state changes
	OnStateChange func(name string, from, to State)
}

// DefaultSettings trips after five consecutive failures and probes again
// after five seconds.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		Cooldown:         5 * time.Second,
	}
}

// Breaker guards calls to one unreliable collaborator
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures uint32
	openedAt time.Time
	probing  bool
}

// New creates a closed circuit breaker. Zero settings take their defaults.
func New(name string, settings Settings) *Breaker {
	defaults := DefaultSettings()
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = defaults.Cooldown
	}
	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn unless the circuit is open. A panic in fn counts as a failure
// and is re-raised.
func (b *Breaker) Do(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	success := false
	defer func() {
		b.record(success)
	}()

	err := fn()
	success = err == nil
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	var changed func()
	defer func() {
		b.mu.Unlock()
		if changed != nil {
			changed()
		}
	}()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.Cooldown {
			return ErrCircuitOpen
		}
		changed = b.setState(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	var changed func()
	defer func() {
		b.mu.Unlock()
		if changed != nil {
			changed()
		}
	}()

	switch b.state {
	case StateHalfOpen:
		b.probing = false
		if success {
			b.failures = 0
			changed = b.setState(StateClosed)
			return
		}
		b.openedAt = b.now()
		changed = b.setState(StateOpen)
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.openedAt = b.now()
			changed = b.setState(StateOpen)
		}
	}
}

// setState switches state and returns the notification to run after the
// lock is released. Caller holds mu.
func (b *Breaker) setState(to State) func() {
	from := b.state
	b.state = to
	if from == to || b.settings.OnStateChange == nil {
		return nil
	}
	return func() { b.settings.OnStateChange(b.name, from, to) }
}
