package models

import (
	"time"
)

type RateLimiter struct {
	Requests map[string][]time.Time
}

// PIN audit actions. One entry is appended per well-formed PIN
// operation; pure format errors are never audited.
const (
	AuditActionSet    = "set"
	AuditActionChange = "change"
	AuditActionVerify = "verify"
	AuditActionFailed = "failed"
	AuditActionLocked = "locked"
	AuditActionReset  = "reset"
)

type UserInfo struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserSecurity holds the per-user PIN state. The hash is salted and
// irreversible; plaintext PINs are never persisted. A non-nil
// PINLockedUntil in the future rejects verification regardless of
// hash correctness.
type UserSecurity struct {
	UserID            int64      `db:"user_id" json:"user_id"`
	PINHash           string     `db:"pin_hash" json:"-"`
	PINSetAt          *time.Time `db:"pin_set_at" json:"pin_set_at,omitempty"`
	PINAttempts       int        `db:"pin_attempts" json:"pin_attempts"`
	PINLockedUntil    *time.Time `db:"pin_locked_until" json:"pin_locked_until,omitempty"`
	RecoveryToken     string     `db:"recovery_token" json:"-"`
	RecoveryExpiresAt *time.Time `db:"recovery_expires_at" json:"-"`
	LastPINChange     *time.Time `db:"last_pin_change" json:"last_pin_change,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// PINVerificationResult is the outcome of a single verification call.
// Attempts reflects the count after the call's bookkeeping. It never
// carries the PIN or its hash.
type PINVerificationResult struct {
	Success     bool       `json:"success"`
	Attempts    int        `json:"attempts"`
	Locked      bool       `json:"locked"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// AuthSession is the ephemeral session view produced after primary
// login. PINVerified is toggled only through the verification gate.
type AuthSession struct {
	UserID           int64  `json:"user_id"`
	Username         string `json:"username"`
	Token            string `json:"-"`
	RequiresPIN      bool   `json:"requires_pin"`
	RequiresPINSetup bool   `json:"requires_pin_setup"`
	PINVerified      bool   `json:"pin_verified"`
}

// PINAuditLog is an append-only record of one PIN-related action.
// Entries are write-once; retention and purging belong to the
// deployment, not this module.
type PINAuditLog struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"user_id"`
	Action    string         `db:"action" json:"action"`
	IPAddress string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	Success   bool           `db:"success" json:"success"`
	Metadata  map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ClientMeta carries optional request metadata into audit entries.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// PINAuthorization proves the caller may replace an existing PIN:
// either the current PIN or an unexpired recovery token.
type PINAuthorization struct {
	CurrentPIN    string `json:"current_pin,omitempty"`
	RecoveryToken string `json:"recovery_token,omitempty"`
}

// RecoveryGrant is returned from a recovery request. Delivery of the
// token to the user is the notification handler's responsibility.
type RecoveryGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
