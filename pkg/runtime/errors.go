package runtime

import "errors"

// Runtime errors. Every failure aborts the whole call; the host discards
// all mutations made so far, so no partial state is ever observable.
var (
	// ErrNotEnoughAccounts is returned when the account cursor runs past
	// the caller-supplied account list.
	ErrNotEnoughAccounts = errors.New("not enough account keys")

	// ErrNotEnoughData is returned when the data cursor runs past the
	// caller-supplied instruction payload.
	ErrNotEnoughData = errors.New("instruction data too short")

	// ErrAddressMismatch is returned when a derived address does not match
	// the account key the caller presented.
	ErrAddressMismatch = errors.New("derived address mismatch")

	// ErrSizeTooSmall is returned when an account's data buffer is smaller
	// than its required fixed layout.
	ErrSizeTooSmall = errors.New("account data too small")

	// ErrMissingSignature is returned when a required signer flag is absent.
	ErrMissingSignature = errors.New("missing required signature")

	// ErrIncorrectSysvar is returned when a presented sysvar account does
	// not carry the expected fixed address.
	ErrIncorrectSysvar = errors.New("incorrect sysvar account")

	// ErrInvocationFailed wraps a downstream program's failure. The
	// downstream code is opaque; no recovery is attempted.
	ErrInvocationFailed = errors.New("sub-invocation failed")

	// ErrNoInvoker is returned when the context was built without a host
	// invoker but an operation needed one.
	ErrNoInvoker = errors.New("no invoker configured")
)
