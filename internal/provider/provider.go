package provider

import (
	"context"
	"errors"

	"quorum/internal/types"
)

// Adapter turns (symbol, market report) into one AIAnalysis, or fails.
// Implementations make exactly one outbound call per Analyze; retry policy
// lives with the caller.
type Adapter interface {
	Name() string
	// Configured reports whether real credentials are present. An
	// unconfigured adapter still answers Analyze with a clearly marked
	// placeholder so the system stays usable in demo mode.
	Configured() bool
	Analyze(ctx context.Context, symbol, report string) (types.AIAnalysis, error)
}

var (
	// ErrMalformedReply marks a reply that parsed as transport-success but
	// failed shape validation. Distinct from transport errors.
	ErrMalformedReply = errors.New("malformed provider reply")
	// ErrValueOutOfRange marks a numeric field outside its documented
	// range. Values are never clamped.
	ErrValueOutOfRange = errors.New("provider value out of range")
)
