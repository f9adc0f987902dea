package ports

import "errors"

// Standard application-level errors. Adapters wrap underlying infrastructure
// errors with these using fmt.Errorf("...: %w", err) so callers can match
// with errors.Is regardless of which adapter produced the failure.
var (
	// General errors.
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")
	ErrRateLimited        = errors.New("provider rate limit exceeded")
	ErrDBConnection       = errors.New("database connection error")

	// Domain invariant errors: violation of a core invariant, fatal at the call site.
	ErrTokenNotFound         = errors.New("token identifier could not be resolved")
	ErrPositionAlreadyOpen   = errors.New("an open position already exists for this symbol")
	ErrPositionNotOpen       = errors.New("position is not open")
	ErrInsufficientCash      = errors.New("insufficient cash balance for this position size")
	ErrInvalidQuantity       = errors.New("quantity must be strictly positive")
	ErrCircuitBreakerTripped = errors.New("circuit breaker tripped")
	ErrInvalidCandle         = errors.New("candle violates OHLCV invariants")
	ErrNonUniformSeries      = errors.New("candle series is not uniformly spaced")
)

// IsTransient reports whether err represents a transient external condition
// worth retrying, as opposed to a permanent failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrDBConnection)
}
