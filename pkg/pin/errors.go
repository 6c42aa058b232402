package pin

import "errors"

var (
	// ErrInvalidPIN rejects malformed input before any bookkeeping.
	// Format errors are never counted and never audited.
	ErrInvalidPIN = errors.New("pin: invalid pin format")

	// ErrNotFound means no security record exists for the user.
	ErrNotFound = errors.New("pin: security record not found")

	// ErrPINNotSet means the record exists but no PIN was set yet.
	ErrPINNotSet = errors.New("pin: no pin set")

	// ErrLocked rejects verification while a lockout is active. The
	// attempt is audited but does not increment the counter or extend
	// the lockout window.
	ErrLocked = errors.New("pin: account locked")

	// ErrUnauthorized means the presented current PIN did not match
	// during a change.
	ErrUnauthorized = errors.New("pin: authorization failed")

	ErrTokenExpired  = errors.New("pin: recovery token expired")
	ErrTokenMismatch = errors.New("pin: recovery token mismatch")
)
