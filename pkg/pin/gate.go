package pin

import (
	"errors"
	"fmt"
	"time"

	"github.com/oarkflow/pinauth/pkg/contracts"
	"github.com/oarkflow/pinauth/pkg/models"
)

const (
	defaultMaxAttempts     = 5
	defaultLockoutDuration = 15 * time.Minute
	defaultRecoveryTTL     = time.Hour
	defaultMinLength       = 4
	defaultMaxLength       = 8
)

type Options struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	RecoveryTTL     time.Duration
	MinLength       int
	MaxLength       int
	// LegacyHashAlgo enables verification of hashes imported from a
	// previous deployment. Empty disables the fallback.
	LegacyHashAlgo string
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.LockoutDuration <= 0 {
		o.LockoutDuration = defaultLockoutDuration
	}
	if o.RecoveryTTL <= 0 {
		o.RecoveryTTL = defaultRecoveryTTL
	}
	if o.MinLength <= 0 {
		o.MinLength = defaultMinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = defaultMaxLength
	}
	return o
}

// Gate orchestrates hash comparison, attempt tracking, lockout
// enforcement and audit emission. It is the only writer of PIN session
// state and the only component allowed to mutate UserSecurity rows
// (through the store and tracker).
//
// Every security-relevant decision is audited before the caller can
// observe it: the audit append happens ahead of the result, so a crash
// immediately after a verification still leaves the attempt
// reconstructable. A storage failure anywhere fails the whole call;
// success is never reported unless the comparison and all bookkeeping
// writes succeeded.
type Gate struct {
	store    contracts.Storage
	opts     Options
	tracker  *AttemptTracker
	recovery *RecoveryIssuer
	now      func() time.Time
}

func NewGate(store contracts.Storage, opts Options) *Gate {
	opts = opts.withDefaults()
	return &Gate{
		store:    store,
		opts:     opts,
		tracker:  NewAttemptTracker(store, opts.MaxAttempts, opts.LockoutDuration),
		recovery: NewRecoveryIssuer(store, opts.RecoveryTTL),
		now:      time.Now,
	}
}

// Verify checks a candidate PIN for the user. Malformed input is
// rejected with ErrInvalidPIN before any attempt is recorded or
// audited; only well-formed comparisons count toward lockout.
//
// A failed comparison returns a nil error with Success false so the
// caller can surface the remaining-attempts count. Attempts made while
// locked return ErrLocked, are audited as failures, and neither
// re-increment the counter nor extend the lockout window.
func (g *Gate) Verify(userID int64, candidatePIN string, meta models.ClientMeta) (models.PINVerificationResult, error) {
	if err := ValidatePIN(candidatePIN, g.opts.MinLength, g.opts.MaxLength); err != nil {
		return models.PINVerificationResult{}, err
	}

	unlock := g.tracker.LockUser(userID)
	defer unlock()

	sec, err := g.store.GetUserSecurity(userID)
	if err != nil {
		return models.PINVerificationResult{}, err
	}
	if sec.PINHash == "" {
		return models.PINVerificationResult{}, ErrPINNotSet
	}

	now := g.now()
	if IsLocked(sec, now) {
		result := models.PINVerificationResult{
			Attempts:    sec.PINAttempts,
			Locked:      true,
			LockedUntil: sec.PINLockedUntil,
		}
		if err := g.audit(userID, models.AuditActionFailed, false, meta, map[string]any{
			"attempts":     sec.PINAttempts,
			"locked_until": sec.PINLockedUntil,
		}); err != nil {
			return models.PINVerificationResult{}, err
		}
		return result, ErrLocked
	}

	if CheckPIN(candidatePIN, sec.PINHash, g.opts.LegacyHashAlgo) {
		if err := g.audit(userID, models.AuditActionVerify, true, meta, nil); err != nil {
			return models.PINVerificationResult{}, err
		}
		if err := g.tracker.RecordSuccess(userID); err != nil {
			return models.PINVerificationResult{}, fmt.Errorf("reset attempts: %w", err)
		}
		return models.PINVerificationResult{Success: true, Attempts: 0}, nil
	}

	st := g.tracker.NextFailure(sec.PINAttempts, now)
	action := models.AuditActionFailed
	if st.Locked {
		// The "locked" action marks only the transition that newly
		// locks the account.
		action = models.AuditActionLocked
	}
	if err := g.audit(userID, action, false, meta, map[string]any{"attempts": st.Attempts}); err != nil {
		return models.PINVerificationResult{}, err
	}
	if err := g.tracker.CommitFailure(userID, st); err != nil {
		return models.PINVerificationResult{}, fmt.Errorf("record failure: %w", err)
	}
	return models.PINVerificationResult{
		Attempts:    st.Attempts,
		Locked:      st.Locked,
		LockedUntil: st.LockedUntil,
	}, nil
}

// SetPIN sets, changes or resets the user's PIN. First-time setup
// needs no authorization beyond an authenticated session. Replacing an
// existing PIN requires either the current PIN or an unexpired
// recovery token; a successful reset clears any active lockout.
func (g *Gate) SetPIN(userID int64, newPIN string, auth models.PINAuthorization, meta models.ClientMeta) error {
	if err := ValidatePIN(newPIN, g.opts.MinLength, g.opts.MaxLength); err != nil {
		return err
	}

	unlock := g.tracker.LockUser(userID)
	defer unlock()

	now := g.now()
	action := models.AuditActionSet
	sec, err := g.store.GetUserSecurity(userID)
	switch {
	case errors.Is(err, ErrNotFound):
		// first-time setup, row is created by SetPIN
	case err != nil:
		return err
	case sec.PINHash != "":
		if auth.RecoveryToken != "" {
			if err := g.recovery.Redeem(userID, auth.RecoveryToken, now); err != nil {
				if errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenMismatch) {
					if auditErr := g.audit(userID, models.AuditActionReset, false, meta, map[string]any{"reason": err.Error()}); auditErr != nil {
						return auditErr
					}
				}
				return err
			}
			action = models.AuditActionReset
		} else {
			if IsLocked(sec, now) {
				if auditErr := g.audit(userID, models.AuditActionChange, false, meta, map[string]any{"locked_until": sec.PINLockedUntil}); auditErr != nil {
					return auditErr
				}
				return ErrLocked
			}
			if auth.CurrentPIN == "" || !CheckPIN(auth.CurrentPIN, sec.PINHash, g.opts.LegacyHashAlgo) {
				if auditErr := g.audit(userID, models.AuditActionChange, false, meta, nil); auditErr != nil {
					return auditErr
				}
				return ErrUnauthorized
			}
			action = models.AuditActionChange
		}
	}

	hash, err := HashPIN(newPIN)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := g.audit(userID, action, true, meta, nil); err != nil {
		return err
	}
	// Resets the attempt counter, clears any lockout and consumes the
	// recovery slot in one write.
	if err := g.store.SetPIN(userID, hash, now); err != nil {
		return fmt.Errorf("persist pin: %w", err)
	}
	return nil
}

// RequestRecovery issues a fresh single-use recovery token,
// invalidating any earlier one. Delivery is the caller's concern.
func (g *Gate) RequestRecovery(userID int64) (models.RecoveryGrant, error) {
	unlock := g.tracker.LockUser(userID)
	defer unlock()

	sec, err := g.store.GetUserSecurity(userID)
	if err != nil {
		return models.RecoveryGrant{}, err
	}
	if sec.PINHash == "" {
		return models.RecoveryGrant{}, ErrPINNotSet
	}
	return g.recovery.Issue(userID, g.now())
}

// SessionFor computes the PIN flags for a freshly authenticated
// session. PINVerified always starts false; only a successful Verify
// flips it.
func (g *Gate) SessionFor(userID int64) (models.AuthSession, error) {
	session := models.AuthSession{UserID: userID}
	sec, err := g.store.GetUserSecurity(userID)
	switch {
	case errors.Is(err, ErrNotFound):
		session.RequiresPINSetup = true
	case err != nil:
		return models.AuthSession{}, err
	case sec.PINHash == "":
		session.RequiresPINSetup = true
	default:
		session.RequiresPIN = true
	}
	return session, nil
}

func (g *Gate) audit(userID int64, action string, success bool, meta models.ClientMeta, metadata map[string]any) error {
	err := g.store.AppendAuditLog(models.PINAuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   success,
		Metadata:  metadata,
		CreatedAt: g.now(),
	})
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}
