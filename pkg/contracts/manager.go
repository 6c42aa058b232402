package contracts

import (
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
)

type SecurityManager interface {
	IsRateLimited(identifier string) bool
	IsRateLimitedWithMax(identifier string, maxRequests int) bool
	RecordRequest(identifier string)
}

// Gate is the externally-facing PIN verification state machine.
type Gate interface {
	Verify(userID int64, candidatePIN string, meta models.ClientMeta) (models.PINVerificationResult, error)
	SetPIN(userID int64, newPIN string, auth models.PINAuthorization, meta models.ClientMeta) error
	RequestRecovery(userID int64) (models.RecoveryGrant, error)
	SessionFor(userID int64) (models.AuthSession, error)
}

// SessionTracker invalidates session tokens issued before a logout or
// a PIN change. Comparisons are by issue timestamp.
type SessionTracker interface {
	SetUserLogout(userID int64)
	IsUserLoggedOut(userID int64, authTimestamp int64) bool
	ClearUserLogout(userID int64)
	MarkPINChanged(userID int64)
	IsPINStateStale(userID int64, authTimestamp int64) bool
}

// NotificationHandler delivers recovery tokens out of band. The core
// never renders or sends anything itself.
type NotificationHandler interface {
	SendRecoveryToken(username string, grant models.RecoveryGrant) error
}

type Manager interface {
	Vault() Storage
	Gate() Gate
	Security() SecurityManager
	Sessions() SessionTracker
	Notifier() NotificationHandler
	LookupUserByUsername(username string) (models.UserInfo, bool)
	LookupUserByID(userID int64) (models.UserInfo, bool)
}

type Config interface {
	Add(name string, configuration any)
	Env(envName string, defaultValue ...any) any
	Get(path string, defaultValue ...any) any
	GetString(path string, defaultValue ...any) string
	GetInt(path string, defaultValue ...any) int
	GetBool(path string, defaultValue ...any) bool
	GetDuration(path string, defaultValue ...any) time.Duration
}
