package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := New("test", settings)
	b.now = clock.Now
	return b, clock
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		requests []bool // true = success, false = failure
		want     State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"stays closed below threshold", []bool{false, false}, StateClosed},
		{"opens at threshold", []bool{false, false, false}, StateOpen},
		{"success resets the count", []bool{false, false, true, false, false}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(Settings{FailureThreshold: 3, Cooldown: time.Minute})
			for _, ok := range tt.requests {
				if ok {
					require.NoError(t, b.Do(succeed))
				} else {
					require.ErrorIs(t, b.Do(fail), errBoom)
				}
			}
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Second})
	require.Error(t, b.Do(fail))

	called := false
	err := b.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock.Advance(999 * time.Millisecond)
	assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Second})
		require.Error(t, b.Do(fail))
		clock.Advance(time.Second)

		require.NoError(t, b.Do(succeed))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("failure reopens", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Second})
		require.Error(t, b.Do(fail))
		clock.Advance(time.Second)

		require.ErrorIs(t, b.Do(fail), errBoom)
		assert.Equal(t, StateOpen, b.State())
		assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
	})

	t.Run("one probe at a time", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Second})
		require.Error(t, b.Do(fail))
		clock.Advance(time.Second)

		err := b.Do(func() error {
			assert.Equal(t, StateHalfOpen, b.State())
			assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Minute})

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("bad sink") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerOnStateChange(t *testing.T) {
	var changes []string
	b, clock := newTestBreaker(Settings{
		FailureThreshold: 1,
		Cooldown:         time.Second,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "test", name)
			changes = append(changes, from.String()+">"+to.String())
		},
	})

	require.Error(t, b.Do(fail))
	clock.Advance(time.Second)
	require.NoError(t, b.Do(succeed))

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, changes)
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New("x", Settings{})
	assert.Equal(t, DefaultSettings().FailureThreshold, b.settings.FailureThreshold)
	assert.Equal(t, DefaultSettings().Cooldown, b.settings.Cooldown)
	assert.Equal(t, "x", b.Name())
	assert.Equal(t, "unknown", State(42).String())
}
