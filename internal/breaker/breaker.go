// Package breaker wraps sony/gobreaker with defaults tuned for venue calls.
package breaker

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"crossarb/internal/apperror"
)

// Breaker shields a venue from repeated calls while it is failing.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a breaker that opens after 5 consecutive failures and probes
// again after 30 seconds.
func New[T any](name string) *Breaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. When the breaker is open the call is
// rejected immediately with CodeCircuitOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return out, apperror.New(apperror.CodeCircuitOpen,
			apperror.WithContext(b.cb.Name()))
	}
	return out, err
}

// State returns the breaker state name for health reporting.
func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}
