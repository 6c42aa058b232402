package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oarkflow/pinauth/pkg/contracts"
	"github.com/oarkflow/pinauth/pkg/models"
)

const recoveryTokenBytes = 32

// RecoveryIssuer issues and validates time-boxed, single-use recovery
// tokens. Issuing overwrites any prior token, so exactly one token can
// be active per user.
type RecoveryIssuer struct {
	store contracts.Storage
	ttl   time.Duration
}

func NewRecoveryIssuer(store contracts.Storage, ttl time.Duration) *RecoveryIssuer {
	return &RecoveryIssuer{store: store, ttl: ttl}
}

func (r *RecoveryIssuer) Issue(userID int64, now time.Time) (models.RecoveryGrant, error) {
	b := make([]byte, recoveryTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return models.RecoveryGrant{}, fmt.Errorf("recovery token generation: %w", err)
	}
	grant := models.RecoveryGrant{
		Token:     hex.EncodeToString(b),
		ExpiresAt: now.Add(r.ttl),
	}
	if err := r.store.SetRecoveryToken(userID, grant.Token, grant.ExpiresAt); err != nil {
		return models.RecoveryGrant{}, err
	}
	return grant, nil
}

// Redeem consumes the stored token. It succeeds only on a byte-for-byte
// match before expiry; the token is cleared on success so it can never
// be redeemed twice. Expiry is checked only after the match so callers
// cannot probe whether some token exists.
func (r *RecoveryIssuer) Redeem(userID int64, token string, now time.Time) error {
	sec, err := r.store.GetUserSecurity(userID)
	if err != nil {
		return err
	}
	if sec.RecoveryToken == "" || token == "" {
		return ErrTokenMismatch
	}
	if subtle.ConstantTimeCompare([]byte(sec.RecoveryToken), []byte(token)) != 1 {
		return ErrTokenMismatch
	}
	if sec.RecoveryExpiresAt == nil || !sec.RecoveryExpiresAt.After(now) {
		return ErrTokenExpired
	}
	return r.store.ClearRecoveryToken(userID)
}
