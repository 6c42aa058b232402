package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/pin"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgres"
	SQLite     DatabaseType = "sqlite"
)

// DatabaseStorage struct with database type awareness
type DatabaseStorage struct {
	db     *squealx.DB
	dbType DatabaseType
}

// NewDatabaseStorage creates a new database storage instance
func NewDatabaseStorage(db *squealx.DB) (*DatabaseStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	storage := &DatabaseStorage{
		db:     db,
		dbType: DatabaseType(db.DriverName()),
	}

	if err := storage.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return storage, nil
}

// createTables creates database tables with appropriate schema for each database type
func (d *DatabaseStorage) createTables() error {
	var queries []string

	switch d.dbType {
	case MySQL:
		queries = d.getMySQLSchema()
	case PostgreSQL:
		queries = d.getPostgreSQLSchema()
	case SQLite:
		queries = d.getSQLiteSchema()
	default:
		return fmt.Errorf("unsupported database type: %s", d.dbType)
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

func (d *DatabaseStorage) getMySQLSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			is_active TINYINT(1) DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_users_username (username),
			INDEX idx_users_created_at (created_at)
		) ENGINE=InnoDB`,

		`CREATE TABLE IF NOT EXISTS credentials (
			user_id BIGINT NOT NULL,
			secret TEXT NOT NULL,
			secret_type VARCHAR(50) DEFAULT 'password' NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, secret_type),
			INDEX idx_credentials_user_id (user_id)
		) ENGINE=InnoDB`,

		`CREATE TABLE IF NOT EXISTS user_security (
			user_id BIGINT PRIMARY KEY,
			pin_hash TEXT,
			pin_set_at TIMESTAMP NULL,
			pin_attempts INT DEFAULT 0,
			pin_locked_until TIMESTAMP NULL,
			recovery_token VARCHAR(255),
			recovery_expires_at TIMESTAMP NULL,
			last_pin_change TIMESTAMP NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_user_security_locked_until (pin_locked_until)
		) ENGINE=InnoDB`,

		`CREATE TABLE IF NOT EXISTS pin_audit_logs (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT NOT NULL,
			action VARCHAR(100) NOT NULL,
			ip_address VARCHAR(45),
			user_agent TEXT,
			success TINYINT(1),
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_pin_audit_logs_user_id (user_id),
			INDEX idx_pin_audit_logs_action (action),
			INDEX idx_pin_audit_logs_created_at (created_at)
		) ENGINE=InnoDB`,
	}
}

func (d *DatabaseStorage) getPostgreSQLSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS credentials (
			user_id BIGINT NOT NULL,
			secret TEXT NOT NULL,
			secret_type VARCHAR(50) DEFAULT 'password' NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, secret_type)
		)`,

		`CREATE TABLE IF NOT EXISTS user_security (
			user_id BIGINT PRIMARY KEY,
			pin_hash TEXT,
			pin_set_at TIMESTAMP NULL,
			pin_attempts INTEGER DEFAULT 0,
			pin_locked_until TIMESTAMP NULL,
			recovery_token VARCHAR(255),
			recovery_expires_at TIMESTAMP NULL,
			last_pin_change TIMESTAMP NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pin_audit_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			action VARCHAR(100) NOT NULL,
			ip_address INET,
			user_agent TEXT,
			success BOOLEAN,
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_credentials_user_id ON credentials(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_security_locked_until ON user_security(pin_locked_until)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_user_id ON pin_audit_logs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_action ON pin_audit_logs(action)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_created_at ON pin_audit_logs(created_at)`,
	}
}

func (d *DatabaseStorage) getSQLiteSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			is_active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS credentials (
			user_id INTEGER NOT NULL,
			secret TEXT NOT NULL,
			secret_type TEXT DEFAULT 'password' NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, secret_type)
		)`,

		`CREATE TABLE IF NOT EXISTS user_security (
			user_id INTEGER PRIMARY KEY,
			pin_hash TEXT,
			pin_set_at DATETIME NULL,
			pin_attempts INTEGER DEFAULT 0,
			pin_locked_until DATETIME NULL,
			recovery_token TEXT,
			recovery_expires_at DATETIME NULL,
			last_pin_change DATETIME NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pin_audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			success INTEGER,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_credentials_user_id ON credentials(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_security_locked_until ON user_security(pin_locked_until)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_user_id ON pin_audit_logs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_action ON pin_audit_logs(action)`,
		`CREATE INDEX IF NOT EXISTS idx_pin_audit_logs_created_at ON pin_audit_logs(created_at)`,
	}
}

// convertBoolForDB converts boolean values to database-specific format
func (d *DatabaseStorage) convertBoolForDB(value bool) any {
	switch d.dbType {
	case PostgreSQL:
		return value
	default:
		if value {
			return 1
		}
		return 0
	}
}

// convertBoolFromDB converts database boolean values to Go boolean
func (d *DatabaseStorage) convertBoolFromDB(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case int:
		return v != 0
	case string:
		return v == "1" || strings.ToLower(v) == "true"
	case []byte:
		str := string(v)
		return str == "1" || strings.ToLower(str) == "true"
	default:
		return false
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return pin.ErrNotFound
	}
	return err
}

// --- User Info and Credentials ---

func (d *DatabaseStorage) SetUserInfo(info models.UserInfo) error {
	updateQuery := `
		UPDATE users
		SET username = :username, is_active = :is_active, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id`

	params := map[string]any{
		"user_id":   info.UserID,
		"username":  info.Username,
		"is_active": d.convertBoolForDB(info.IsActive),
	}

	result, err := d.db.NamedExec(updateQuery, params)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		insertQuery := `
			INSERT INTO users (user_id, username, is_active)
			VALUES (:user_id, :username, :is_active)`
		_, err = d.db.NamedExec(insertQuery, params)
		return err
	}
	return nil
}

func (d *DatabaseStorage) GetUserInfo(userID int64) (models.UserInfo, error) {
	return d.getUser(`SELECT user_id, username, is_active, created_at, updated_at FROM users WHERE user_id = :user_id`,
		map[string]any{"user_id": userID})
}

func (d *DatabaseStorage) GetUserInfoByUsername(username string) (models.UserInfo, error) {
	return d.getUser(`SELECT user_id, username, is_active, created_at, updated_at FROM users WHERE username = :username`,
		map[string]any{"username": username})
}

func (d *DatabaseStorage) getUser(query string, params map[string]any) (models.UserInfo, error) {
	var rawResult struct {
		UserID    int64     `db:"user_id"`
		Username  string    `db:"username"`
		IsActive  any       `db:"is_active"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := d.db.NamedGet(&rawResult, query, params); err != nil {
		return models.UserInfo{}, notFound(err)
	}
	return models.UserInfo{
		UserID:    rawResult.UserID,
		Username:  rawResult.Username,
		IsActive:  d.convertBoolFromDB(rawResult.IsActive),
		CreatedAt: rawResult.CreatedAt,
		UpdatedAt: rawResult.UpdatedAt,
	}, nil
}

func (d *DatabaseStorage) SetUserSecret(userID int64, secret string) error {
	updateQuery := `
		UPDATE credentials
		SET secret = :secret, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id AND secret_type = :secret_type`

	params := map[string]any{
		"user_id":     userID,
		"secret":      secret,
		"secret_type": "password",
	}

	result, err := d.db.NamedExec(updateQuery, params)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		insertQuery := `
			INSERT INTO credentials (user_id, secret, secret_type)
			VALUES (:user_id, :secret, :secret_type)`
		_, err = d.db.NamedExec(insertQuery, params)
		return err
	}
	return nil
}

func (d *DatabaseStorage) GetUserSecret(userID int64) (string, error) {
	query := `SELECT secret FROM credentials WHERE user_id = :user_id AND secret_type = :secret_type`
	params := map[string]any{
		"user_id":     userID,
		"secret_type": "password",
	}

	var secret string
	if err := d.db.NamedGet(&secret, query, params); err != nil {
		return "", notFound(err)
	}
	return secret, nil
}

// --- PIN Security State ---

func (d *DatabaseStorage) GetUserSecurity(userID int64) (models.UserSecurity, error) {
	query := `SELECT user_id, COALESCE(pin_hash, '') as pin_hash, pin_set_at, pin_attempts,
		pin_locked_until, COALESCE(recovery_token, '') as recovery_token, recovery_expires_at,
		last_pin_change, created_at, updated_at
		FROM user_security WHERE user_id = :user_id`

	var sec models.UserSecurity
	if err := d.db.NamedGet(&sec, query, map[string]any{"user_id": userID}); err != nil {
		return models.UserSecurity{}, notFound(err)
	}
	return sec, nil
}

// SetPIN stores the hash and resets the row's verification state:
// attempts back to zero, lockout and recovery token cleared.
func (d *DatabaseStorage) SetPIN(userID int64, pinHash string, now time.Time) error {
	updateQuery := `
		UPDATE user_security
		SET pin_hash = :pin_hash, pin_set_at = :now, pin_attempts = 0,
			pin_locked_until = NULL, recovery_token = NULL, recovery_expires_at = NULL,
			last_pin_change = :now, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id`

	params := map[string]any{
		"user_id":  userID,
		"pin_hash": pinHash,
		"now":      now,
	}

	result, err := d.db.NamedExec(updateQuery, params)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		insertQuery := `
			INSERT INTO user_security (user_id, pin_hash, pin_set_at, pin_attempts, last_pin_change)
			VALUES (:user_id, :pin_hash, :now, 0, :now)`
		_, err = d.db.NamedExec(insertQuery, params)
		return err
	}
	return nil
}

func (d *DatabaseStorage) UpdateAttempts(userID int64, attempts int, lockedUntil *time.Time) error {
	query := `
		UPDATE user_security
		SET pin_attempts = :pin_attempts, pin_locked_until = :pin_locked_until, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id`

	params := map[string]any{
		"user_id":          userID,
		"pin_attempts":     attempts,
		"pin_locked_until": lockedUntil,
	}

	result, err := d.db.NamedExec(query, params)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return pin.ErrNotFound
	}
	return nil
}

func (d *DatabaseStorage) SetRecoveryToken(userID int64, token string, expiresAt time.Time) error {
	query := `
		UPDATE user_security
		SET recovery_token = :recovery_token, recovery_expires_at = :recovery_expires_at, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id`

	params := map[string]any{
		"user_id":             userID,
		"recovery_token":      token,
		"recovery_expires_at": expiresAt,
	}

	result, err := d.db.NamedExec(query, params)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return pin.ErrNotFound
	}
	return nil
}

func (d *DatabaseStorage) ClearRecoveryToken(userID int64) error {
	query := `
		UPDATE user_security
		SET recovery_token = NULL, recovery_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id`

	result, err := d.db.NamedExec(query, map[string]any{"user_id": userID})
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return pin.ErrNotFound
	}
	return nil
}

// --- Audit Log ---

func (d *DatabaseStorage) AppendAuditLog(entry models.PINAuditLog) error {
	metadata := ""
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		metadata = string(b)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO pin_audit_logs (user_id, action, ip_address, user_agent, success, metadata, created_at)
		VALUES (:user_id, :action, :ip_address, :user_agent, :success, :metadata, :created_at)`
	params := map[string]any{
		"user_id":    entry.UserID,
		"action":     entry.Action,
		"ip_address": entry.IPAddress,
		"user_agent": entry.UserAgent,
		"success":    d.convertBoolForDB(entry.Success),
		"metadata":   metadata,
		"created_at": createdAt,
	}
	_, err := d.db.NamedExec(query, params)
	return err
}

func (d *DatabaseStorage) ListAuditLogs(userID int64, limit int) ([]models.PINAuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, user_id, action, COALESCE(ip_address, '') as ip_address,
		COALESCE(user_agent, '') as user_agent, success, COALESCE(metadata, '') as metadata, created_at
		FROM pin_audit_logs WHERE user_id = :user_id ORDER BY id DESC LIMIT :limit`

	var rows []struct {
		ID        int64     `db:"id"`
		UserID    int64     `db:"user_id"`
		Action    string    `db:"action"`
		IPAddress string    `db:"ip_address"`
		UserAgent string    `db:"user_agent"`
		Success   any       `db:"success"`
		Metadata  string    `db:"metadata"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := d.db.NamedSelect(&rows, query, map[string]any{"user_id": userID, "limit": limit}); err != nil {
		return nil, err
	}

	entries := make([]models.PINAuditLog, 0, len(rows))
	for _, row := range rows {
		entry := models.PINAuditLog{
			ID:        row.ID,
			UserID:    row.UserID,
			Action:    row.Action,
			IPAddress: row.IPAddress,
			UserAgent: row.UserAgent,
			Success:   d.convertBoolFromDB(row.Success),
			CreatedAt: row.CreatedAt,
		}
		if row.Metadata != "" {
			var meta map[string]any
			if err := json.Unmarshal([]byte(row.Metadata), &meta); err == nil {
				entry.Metadata = meta
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DetectDatabaseType resolves the database dialect from driver name or DSN.
func DetectDatabaseType(driverName string, dataSource string) DatabaseType {
	driverName = strings.ToLower(driverName)
	dataSource = strings.ToLower(dataSource)

	switch {
	case strings.Contains(driverName, "mysql") || strings.Contains(dataSource, "mysql"):
		return MySQL
	case strings.Contains(driverName, "postgres") || strings.Contains(driverName, "pgx") ||
		strings.Contains(dataSource, "postgres") || strings.Contains(dataSource, "postgresql"):
		return PostgreSQL
	case strings.Contains(driverName, "sqlite") || strings.Contains(dataSource, ".db") ||
		strings.Contains(dataSource, "sqlite"):
		return SQLite
	default:
		return SQLite
	}
}
