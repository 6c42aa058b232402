package libs

import (
	"sync"
	"time"
)

// SessionTracker invalidates session tokens by issue timestamp: a
// logout invalidates everything issued before it, and a PIN change
// invalidates the pin-verified claim of tokens issued before the
// change. Tokens themselves stay stateless.
type SessionTracker struct {
	logoutTimes map[int64]int64
	pinChanges  map[int64]int64
	mu          sync.RWMutex
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		logoutTimes: make(map[int64]int64),
		pinChanges:  make(map[int64]int64),
	}
}

func (st *SessionTracker) SetUserLogout(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.logoutTimes[userID] = time.Now().Unix()
}

func (st *SessionTracker) IsUserLoggedOut(userID int64, authTimestamp int64) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()

	logoutTime, exists := st.logoutTimes[userID]
	if !exists {
		return false
	}
	return authTimestamp < logoutTime
}

func (st *SessionTracker) ClearUserLogout(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.logoutTimes, userID)
}

// MarkPINChanged records that sessions verified before now must
// re-verify their PIN.
func (st *SessionTracker) MarkPINChanged(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pinChanges[userID] = time.Now().Unix()
}

func (st *SessionTracker) IsPINStateStale(userID int64, authTimestamp int64) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()

	changed, exists := st.pinChanges[userID]
	if !exists {
		return false
	}
	return authTimestamp < changed
}
