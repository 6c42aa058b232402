package libs

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oarkflow/paseto/token"

	"github.com/oarkflow/pinauth/pkg/models"
)

// CreateSessionToken issues an encrypted PASETO session token carrying
// the gate's session flags. The pin_verified claim is set only here,
// from an AuthSession produced by the gate.
func CreateSessionToken(secret []byte, timeout time.Duration, session models.AuthSession, ip string, now time.Time) (string, error) {
	t := token.CreateToken(timeout, token.AlgEncrypt)
	claims := map[string]any{
		"sub":          strconv.FormatInt(session.UserID, 10),
		"username":     session.Username,
		"ip":           ip,
		"iat":          now.Unix(),
		"pin_required": session.RequiresPIN,
		"pin_setup":    session.RequiresPINSetup,
		"pin_verified": session.PINVerified,
	}
	if err := token.RegisterClaims(t, claims); err != nil {
		return "", fmt.Errorf("register claims: %w", err)
	}
	return token.EncryptToken(t, secret)
}

// ParseSessionToken decrypts a session token and reconstructs the
// session view from its claims.
func ParseSessionToken(secret []byte, tokenStr string) (models.AuthSession, map[string]any, error) {
	decTok, err := token.DecryptToken(tokenStr, secret)
	if err != nil {
		return models.AuthSession{}, nil, err
	}
	claims := decTok.Claims

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.AuthSession{}, nil, fmt.Errorf("invalid subject claim")
	}
	username, _ := claims["username"].(string)

	session := models.AuthSession{
		UserID:           userID,
		Username:         username,
		Token:            tokenStr,
		RequiresPIN:      claimBool(claims, "pin_required"),
		RequiresPINSetup: claimBool(claims, "pin_setup"),
		PINVerified:      claimBool(claims, "pin_verified"),
	}
	return session, claims, nil
}

func claimBool(claims map[string]any, key string) bool {
	v, _ := claims[key].(bool)
	return v
}

// ClaimIssuedAt reads the iat claim; paseto decodes numbers as float64.
func ClaimIssuedAt(claims map[string]any) int64 {
	switch v := claims["iat"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
