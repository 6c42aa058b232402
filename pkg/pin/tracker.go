package pin

import (
	"sync"
	"time"

	"github.com/oarkflow/pinauth/pkg/contracts"
	"github.com/oarkflow/pinauth/pkg/models"
)

// FailureState is the attempt bookkeeping computed for one failed
// verification.
type FailureState struct {
	Attempts    int
	Locked      bool
	LockedUntil *time.Time
}

// AttemptTracker owns the consecutive-failure counters and lockout
// windows. Lockouts expire lazily by timestamp comparison; no
// background sweep runs. Per-user mutexes serialize concurrent
// verifications so two simultaneous wrong guesses cannot both observe
// the same count; different users never contend.
type AttemptTracker struct {
	store           contracts.Storage
	maxAttempts     int
	lockoutDuration time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewAttemptTracker(store contracts.Storage, maxAttempts int, lockoutDuration time.Duration) *AttemptTracker {
	return &AttemptTracker{
		store:           store,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		locks:           make(map[int64]*sync.Mutex),
	}
}

// LockUser acquires the per-user mutex and returns its release func.
func (t *AttemptTracker) LockUser(userID int64) func() {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	t.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// NextFailure computes the state one more failure would produce. The
// lockout starts on the attempt that crosses the threshold.
func (t *AttemptTracker) NextFailure(attempts int, now time.Time) FailureState {
	st := FailureState{Attempts: attempts + 1}
	if st.Attempts >= t.maxAttempts {
		until := now.Add(t.lockoutDuration)
		st.Locked = true
		st.LockedUntil = &until
	}
	return st
}

// CommitFailure persists a computed failure state.
func (t *AttemptTracker) CommitFailure(userID int64, st FailureState) error {
	return t.store.UpdateAttempts(userID, st.Attempts, st.LockedUntil)
}

// RecordSuccess resets the counter to zero and clears any lockout.
func (t *AttemptTracker) RecordSuccess(userID int64) error {
	return t.store.UpdateAttempts(userID, 0, nil)
}

// IsLocked reports whether a lockout timestamp is present and strictly
// after now.
func IsLocked(sec models.UserSecurity, now time.Time) bool {
	return sec.PINLockedUntil != nil && sec.PINLockedUntil.After(now)
}
