package allocator

import "errors"

var (
	// ErrInvalidTransition is returned when a match or job state change is
	// attempted outside the legal state machine. No side effects are applied.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidDecision is returned for a decision other than accept/decline.
	ErrInvalidDecision = errors.New("decision must be accept or decline")

	ErrJobNotFound   = errors.New("job not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrTradeNotFound = errors.New("trade not found")
)
