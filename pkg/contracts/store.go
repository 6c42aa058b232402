package contracts

import (
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
)

// --- vault Storage Interface ---
//
// Implementations map absent rows to pin.ErrNotFound. Mutations to
// UserSecurity happen only through SetPIN, UpdateAttempts and the
// recovery-token methods; partial updates preserve unrelated fields.
type Storage interface {
	// user accounts (primary login)
	SetUserInfo(info models.UserInfo) error
	GetUserInfo(userID int64) (models.UserInfo, error)
	GetUserInfoByUsername(username string) (models.UserInfo, error)
	SetUserSecret(userID int64, secret string) error
	GetUserSecret(userID int64) (string, error)

	// PIN security state
	GetUserSecurity(userID int64) (models.UserSecurity, error)
	SetPIN(userID int64, pinHash string, now time.Time) error
	UpdateAttempts(userID int64, attempts int, lockedUntil *time.Time) error
	SetRecoveryToken(userID int64, token string, expiresAt time.Time) error
	ClearRecoveryToken(userID int64) error

	// audit log (append-only)
	AppendAuditLog(entry models.PINAuditLog) error
	ListAuditLogs(userID int64, limit int) ([]models.PINAuditLog, error)
}
