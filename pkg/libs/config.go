package libs

import (
	"time"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/pinauth/pkg/objects"
)

type Config struct {
	Secret         []byte
	SessionName    string
	SessionTimeout time.Duration
	DB             *squealx.DB

	MaxAttempts     int
	LockoutDuration time.Duration
	RecoveryTTL     time.Duration
	PINMinLength    int
	PINMaxLength    int
	LegacyHashAlgo  string

	RateLimitRequests  int
	RateLimitWindow    time.Duration
	EnableAuditLogging bool
	Environment        string
	EnableHTTPS        bool
}

// --- Configuration Functions ---
func LoadConfig() *Config {
	secret := objects.Config.GetString("pin.secret")
	sessionName := objects.Config.GetString("pin.session_name", "session_token")
	sessionTimeout := objects.Config.GetDuration("pin.session_timeout", "24h")
	maxAttempts := objects.Config.GetInt("pin.max_attempts", 5)
	lockoutDuration := objects.Config.GetDuration("pin.lockout_duration", "15m")
	recoveryTTL := objects.Config.GetDuration("pin.recovery_ttl", "1h")
	pinMinLength := objects.Config.GetInt("pin.min_length", 4)
	pinMaxLength := objects.Config.GetInt("pin.max_length", 8)
	legacyHashAlgo := objects.Config.GetString("pin.legacy_hash_algo")
	rateLimitRequests := objects.Config.GetInt("pin.rate_limit_requests", 30)
	rateLimitWindow := objects.Config.GetDuration("pin.rate_limit_window", "1m")
	enableAuditLogging := objects.Config.GetBool("pin.enable_audit_logging", true)
	environment := objects.Config.GetString("app.env", "development")
	enableHTTPS := objects.Config.GetBool("app.https", false)

	return &Config{
		Secret:             []byte(secret),
		SessionName:        sessionName,
		SessionTimeout:     sessionTimeout,
		MaxAttempts:        maxAttempts,
		LockoutDuration:    lockoutDuration,
		RecoveryTTL:        recoveryTTL,
		PINMinLength:       pinMinLength,
		PINMaxLength:       pinMaxLength,
		LegacyHashAlgo:     legacyHashAlgo,
		RateLimitRequests:  rateLimitRequests,
		RateLimitWindow:    rateLimitWindow,
		EnableAuditLogging: enableAuditLogging,
		Environment:        environment,
		EnableHTTPS:        enableHTTPS,
	}
}
