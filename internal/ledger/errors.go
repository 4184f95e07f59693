package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when applying an entry would drive
	// the account balance negative. Nothing is written.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateEntry is returned when an entry with the same
	// (account_id, reason, reference_id) was already applied. The original
	// entry stands; callers retrying an operation may treat this as success.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")

	// ErrAccountNotFound is returned for an unknown account id.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidReason is returned for an unknown ledger reason.
	ErrInvalidReason = errors.New("invalid ledger reason")
)
