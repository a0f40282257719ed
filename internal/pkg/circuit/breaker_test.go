package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after threshold consecutive failures", func(t *testing.T) {
		cb := NewCircuitBreaker("test", 3, time.Minute)
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, StateClosed, cb.State())
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		assert.Equal(t, StateOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		cb := NewCircuitBreaker("test", 3, time.Minute)
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half open probe after cooldown", func(t *testing.T) {
		cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
		cb.RecordFailure()
		assert.False(t, cb.Allow())

		time.Sleep(20 * time.Millisecond)
		assert.True(t, cb.Allow())
		assert.Equal(t, StateHalfOpen, cb.State())
	})

	t.Run("half open success closes the circuit", func(t *testing.T) {
		cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(20 * time.Millisecond)
		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half open failure reopens immediately", func(t *testing.T) {
		cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(20 * time.Millisecond)
		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, StateOpen, cb.State())
		assert.False(t, cb.Allow())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF-OPEN", StateHalfOpen.String())
}
