package libs

import (
	"github.com/oarkflow/pinauth/pkg/contracts"
	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/pin"
)

// Manager wires the vault, the verification gate and the ambient
// security pieces together. It is registered in objects.Manager and
// consumed by the HTTP layer.
type Manager struct {
	Config           *Config
	SendNotification contracts.NotificationHandler

	vault    contracts.Storage
	gate     contracts.Gate
	security *SecurityManager
	sessions *SessionTracker
}

func NewManager(vault contracts.Storage, cfg *Config) *Manager {
	gate := pin.NewGate(vault, pin.Options{
		MaxAttempts:     cfg.MaxAttempts,
		LockoutDuration: cfg.LockoutDuration,
		RecoveryTTL:     cfg.RecoveryTTL,
		MinLength:       cfg.PINMinLength,
		MaxLength:       cfg.PINMaxLength,
		LegacyHashAlgo:  cfg.LegacyHashAlgo,
	})
	return &Manager{
		Config:           cfg,
		SendNotification: NotificationHandler{},
		vault:            vault,
		gate:             gate,
		security:         NewSecurityManager(cfg.RateLimitWindow),
		sessions:         NewSessionTracker(),
	}
}

func (m *Manager) Vault() contracts.Storage {
	return m.vault
}

func (m *Manager) Gate() contracts.Gate {
	return m.gate
}

func (m *Manager) Security() contracts.SecurityManager {
	return m.security
}

func (m *Manager) Sessions() contracts.SessionTracker {
	return m.sessions
}

func (m *Manager) Notifier() contracts.NotificationHandler {
	if m.SendNotification == nil {
		return NotificationHandler{}
	}
	return m.SendNotification
}

func (m *Manager) LookupUserByUsername(username string) (models.UserInfo, bool) {
	info, err := m.vault.GetUserInfoByUsername(username)
	if err != nil {
		return models.UserInfo{}, false
	}
	return info, true
}

func (m *Manager) LookupUserByID(userID int64) (models.UserInfo, bool) {
	info, err := m.vault.GetUserInfo(userID)
	if err != nil {
		return models.UserInfo{}, false
	}
	return info, true
}
