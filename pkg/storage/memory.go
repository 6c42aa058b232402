package storage

import (
	"sync"
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/pin"
)

// MemoryStorage is a map-backed vault used by tests and by deployments
// that have no database configured.
type MemoryStorage struct {
	mu        sync.RWMutex
	users     map[int64]models.UserInfo
	usernames map[string]int64
	secrets   map[int64]string
	security  map[int64]models.UserSecurity
	audit     []models.PINAuditLog
	nextAudit int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:     make(map[int64]models.UserInfo),
		usernames: make(map[string]int64),
		secrets:   make(map[int64]string),
		security:  make(map[int64]models.UserSecurity),
		nextAudit: 1,
	}
}

func (m *MemoryStorage) SetUserInfo(info models.UserInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.users[info.UserID]; ok {
		info.CreatedAt = existing.CreatedAt
	} else {
		info.CreatedAt = now
	}
	info.UpdatedAt = now
	m.users[info.UserID] = info
	m.usernames[info.Username] = info.UserID
	return nil
}

func (m *MemoryStorage) GetUserInfo(userID int64) (models.UserInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.users[userID]
	if !ok {
		return models.UserInfo{}, pin.ErrNotFound
	}
	return info, nil
}

func (m *MemoryStorage) GetUserInfoByUsername(username string) (models.UserInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[username]
	if !ok {
		return models.UserInfo{}, pin.ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryStorage) SetUserSecret(userID int64, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[userID] = secret
	return nil
}

func (m *MemoryStorage) GetUserSecret(userID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	secret, ok := m.secrets[userID]
	if !ok {
		return "", pin.ErrNotFound
	}
	return secret, nil
}

func (m *MemoryStorage) GetUserSecurity(userID int64) (models.UserSecurity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sec, ok := m.security[userID]
	if !ok {
		return models.UserSecurity{}, pin.ErrNotFound
	}
	return sec, nil
}

func (m *MemoryStorage) SetPIN(userID int64, pinHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.security[userID]
	if !ok {
		sec = models.UserSecurity{UserID: userID, CreatedAt: now}
	}
	setAt := now
	sec.PINHash = pinHash
	sec.PINSetAt = &setAt
	sec.PINAttempts = 0
	sec.PINLockedUntil = nil
	sec.RecoveryToken = ""
	sec.RecoveryExpiresAt = nil
	sec.LastPINChange = &setAt
	sec.UpdatedAt = now
	m.security[userID] = sec
	return nil
}

func (m *MemoryStorage) UpdateAttempts(userID int64, attempts int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.security[userID]
	if !ok {
		return pin.ErrNotFound
	}
	sec.PINAttempts = attempts
	sec.PINLockedUntil = lockedUntil
	sec.UpdatedAt = time.Now()
	m.security[userID] = sec
	return nil
}

func (m *MemoryStorage) SetRecoveryToken(userID int64, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.security[userID]
	if !ok {
		return pin.ErrNotFound
	}
	sec.RecoveryToken = token
	sec.RecoveryExpiresAt = &expiresAt
	sec.UpdatedAt = time.Now()
	m.security[userID] = sec
	return nil
}

func (m *MemoryStorage) ClearRecoveryToken(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.security[userID]
	if !ok {
		return pin.ErrNotFound
	}
	sec.RecoveryToken = ""
	sec.RecoveryExpiresAt = nil
	sec.UpdatedAt = time.Now()
	m.security[userID] = sec
	return nil
}

func (m *MemoryStorage) AppendAuditLog(entry models.PINAuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextAudit
	m.nextAudit++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.audit = append(m.audit, entry)
	return nil
}

func (m *MemoryStorage) ListAuditLogs(userID int64, limit int) ([]models.PINAuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PINAuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].UserID != userID {
			continue
		}
		out = append(out, m.audit[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
