package libs

import (
	"testing"
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
)

var testSecret = []byte("OdR4DlWhZk6osDd0qXLdVT88lHOvj14L")

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Now()
	session := models.AuthSession{
		UserID:      42,
		Username:    "alice",
		RequiresPIN: true,
	}

	tokenStr, err := CreateSessionToken(testSecret, time.Hour, session, "203.0.113.9", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, claims, err := ParseSessionToken(testSecret, tokenStr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != 42 || got.Username != "alice" {
		t.Errorf("session = %+v", got)
	}
	if !got.RequiresPIN || got.RequiresPINSetup || got.PINVerified {
		t.Errorf("pin flags = %+v, want only RequiresPIN", got)
	}
	if ip, _ := claims["ip"].(string); ip != "203.0.113.9" {
		t.Errorf("ip claim = %q", ip)
	}
	if iat := ClaimIssuedAt(claims); iat != now.Unix() {
		t.Errorf("iat = %d, want %d", iat, now.Unix())
	}
}

func TestSessionTokenVerifiedFlag(t *testing.T) {
	session := models.AuthSession{UserID: 7, Username: "bob", RequiresPIN: true, PINVerified: true}
	tokenStr, err := CreateSessionToken(testSecret, time.Hour, session, "", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := ParseSessionToken(testSecret, tokenStr)
	if err != nil {
		t.Fatal(err)
	}
	if !got.PINVerified {
		t.Error("pin_verified claim lost in round trip")
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	tokenStr, err := CreateSessionToken(testSecret, time.Hour, models.AuthSession{UserID: 1}, "", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	other := []byte("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	if _, _, err := ParseSessionToken(other, tokenStr); err == nil {
		t.Fatal("token decrypted with the wrong secret")
	}
}

func TestSessionTokenGarbage(t *testing.T) {
	if _, _, err := ParseSessionToken(testSecret, "not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
