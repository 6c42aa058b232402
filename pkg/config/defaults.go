package config

import (
	"github.com/oarkflow/pinauth/pkg/objects"
)

type Defaults struct{}

func (a *Defaults) Prefix() string {
	return "pin"
}

func (a *Defaults) Load() {
	objects.Config.Add("app.name", "PINAuth")
	objects.Config.Add("app.version", "1.0.0")
	objects.Config.Add("app.env", "development")
	objects.Config.Add("app.https", false)
	objects.Config.Add("app.port", objects.Config.Env("PIN_AUTH_PORT", 3000))
	objects.Config.Add(a.Prefix(), map[string]any{
		"secret":          objects.Config.Env("PIN_AUTH_SECRET", "OdR4DlWhZk6osDd0qXLdVT88lHOvj14L"),
		"session_name":    objects.Config.Env("PIN_AUTH_SESSION_NAME", "session_token"),
		"session_timeout": objects.Config.Env("PIN_AUTH_SESSION_TIMEOUT", "24h"),

		"max_attempts":     objects.Config.Env("PIN_MAX_ATTEMPTS", 5),
		"lockout_duration": objects.Config.Env("PIN_LOCKOUT_DURATION", "15m"),
		"recovery_ttl":     objects.Config.Env("PIN_RECOVERY_TTL", "1h"),
		"min_length":       objects.Config.Env("PIN_MIN_LENGTH", 4),
		"max_length":       objects.Config.Env("PIN_MAX_LENGTH", 8),
		"legacy_hash_algo": objects.Config.Env("PIN_LEGACY_HASH_ALGO", ""),

		"rate_limit_requests": objects.Config.Env("PIN_RATE_LIMIT_REQUESTS", 30),
		"rate_limit_window":   objects.Config.Env("PIN_RATE_LIMIT_WINDOW", "1m"),

		"enable_audit_logging": objects.Config.Env("PIN_ENABLE_AUDIT_LOGGING", true),

		"db_driver":   objects.Config.Env("PIN_DB_DRIVER", "sqlite"),
		"db_file":     objects.Config.Env("PIN_DB_FILE", "vault.db"),
		"db_host":     objects.Config.Env("PIN_DB_HOST", "localhost"),
		"db_port":     objects.Config.Env("PIN_DB_PORT", 5432),
		"db_user":     objects.Config.Env("PIN_DB_USER", "postgres"),
		"db_password": objects.Config.Env("PIN_DB_PASSWORD", "postgres"),
		"db_name":     objects.Config.Env("PIN_DB_NAME", "pinauth"),
	})
}
