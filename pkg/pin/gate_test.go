package pin

import (
	"errors"
	"testing"
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
)

// fakeStore is an in-memory vault for gate tests. failAudit and
// failUpdate inject storage errors to exercise the failure paths.
type fakeStore struct {
	security   map[int64]models.UserSecurity
	audit      []models.PINAuditLog
	failAudit  bool
	failUpdate bool
}

var errInjected = errors.New("injected storage failure")

func newFakeStore() *fakeStore {
	return &fakeStore{security: make(map[int64]models.UserSecurity)}
}

func (f *fakeStore) SetUserInfo(models.UserInfo) error { return nil }

func (f *fakeStore) GetUserInfo(int64) (models.UserInfo, error) {
	return models.UserInfo{}, ErrNotFound
}

func (f *fakeStore) GetUserInfoByUsername(string) (models.UserInfo, error) {
	return models.UserInfo{}, ErrNotFound
}

func (f *fakeStore) SetUserSecret(int64, string) error { return nil }

func (f *fakeStore) GetUserSecret(int64) (string, error) { return "", ErrNotFound }

func (f *fakeStore) GetUserSecurity(userID int64) (models.UserSecurity, error) {
	sec, ok := f.security[userID]
	if !ok {
		return models.UserSecurity{}, ErrNotFound
	}
	return sec, nil
}

func (f *fakeStore) SetPIN(userID int64, pinHash string, now time.Time) error {
	sec := f.security[userID]
	sec.UserID = userID
	setAt := now
	sec.PINHash = pinHash
	sec.PINSetAt = &setAt
	sec.PINAttempts = 0
	sec.PINLockedUntil = nil
	sec.RecoveryToken = ""
	sec.RecoveryExpiresAt = nil
	sec.LastPINChange = &setAt
	f.security[userID] = sec
	return nil
}

func (f *fakeStore) UpdateAttempts(userID int64, attempts int, lockedUntil *time.Time) error {
	if f.failUpdate {
		return errInjected
	}
	sec, ok := f.security[userID]
	if !ok {
		return ErrNotFound
	}
	sec.PINAttempts = attempts
	sec.PINLockedUntil = lockedUntil
	f.security[userID] = sec
	return nil
}

func (f *fakeStore) SetRecoveryToken(userID int64, token string, expiresAt time.Time) error {
	sec, ok := f.security[userID]
	if !ok {
		return ErrNotFound
	}
	sec.RecoveryToken = token
	sec.RecoveryExpiresAt = &expiresAt
	f.security[userID] = sec
	return nil
}

func (f *fakeStore) ClearRecoveryToken(userID int64) error {
	sec, ok := f.security[userID]
	if !ok {
		return ErrNotFound
	}
	sec.RecoveryToken = ""
	sec.RecoveryExpiresAt = nil
	f.security[userID] = sec
	return nil
}

func (f *fakeStore) AppendAuditLog(entry models.PINAuditLog) error {
	if f.failAudit {
		return errInjected
	}
	entry.ID = int64(len(f.audit) + 1)
	f.audit = append(f.audit, entry)
	return nil
}

func (f *fakeStore) ListAuditLogs(userID int64, limit int) ([]models.PINAuditLog, error) {
	var out []models.PINAuditLog
	for i := len(f.audit) - 1; i >= 0; i-- {
		if f.audit[i].UserID != userID {
			continue
		}
		out = append(out, f.audit[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) actions(userID int64) []string {
	var out []string
	for _, e := range f.audit {
		if e.UserID == userID {
			out = append(out, e.Action)
		}
	}
	return out
}

func newTestGate(store *fakeStore, opts Options) (*Gate, *time.Time) {
	g := NewGate(store, opts)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return current }
	return g, &current
}

var meta = models.ClientMeta{IPAddress: "203.0.113.9", UserAgent: "test-agent"}

func TestSetPINFirstTime(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})

	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatalf("first-time setup: %v", err)
	}
	sec := store.security[1]
	if sec.PINHash == "" || sec.PINHash == "1234" {
		t.Fatalf("stored hash %q, want irreversible digest", sec.PINHash)
	}
	if got := store.actions(1); len(got) != 1 || got[0] != models.AuditActionSet {
		t.Fatalf("audit actions = %v, want [set]", got)
	}
	if !store.audit[0].Success {
		t.Error("setup audit entry should record success")
	}
	if store.audit[0].IPAddress != meta.IPAddress || store.audit[0].UserAgent != meta.UserAgent {
		t.Error("audit entry missing client metadata")
	}
}

func TestVerifyCorrectPIN(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	res, err := g.Verify(1, "1234", meta)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if res.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", res.Attempts)
	}
	if got := store.actions(1); got[len(got)-1] != models.AuditActionVerify {
		t.Errorf("last audit action = %q, want verify", got[len(got)-1])
	}
}

func TestVerifyWrongPINIncrementsAttempts(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	res, err := g.Verify(1, "9999", meta)
	if err != nil {
		t.Fatalf("wrong pin should not error: %v", err)
	}
	if res.Success {
		t.Fatal("wrong pin reported success")
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if res.Locked {
		t.Error("single failure should not lock")
	}
	if store.security[1].PINAttempts != 1 {
		t.Errorf("persisted attempts = %d, want 1", store.security[1].PINAttempts)
	}
	last := store.audit[len(store.audit)-1]
	if last.Action != models.AuditActionFailed || last.Success {
		t.Errorf("audit entry = %q success=%v, want failed/false", last.Action, last.Success)
	}
}

func TestVerifySuccessResetsCounter(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	g.Verify(1, "0000", meta)
	g.Verify(1, "0001", meta)
	res, err := g.Verify(1, "1234", meta)
	if err != nil || !res.Success {
		t.Fatalf("verify after failures: res=%+v err=%v", res, err)
	}
	if store.security[1].PINAttempts != 0 {
		t.Errorf("attempts after success = %d, want 0", store.security[1].PINAttempts)
	}
}

func TestLockoutAtThreshold(t *testing.T) {
	store := newFakeStore()
	g, now := newTestGate(store, Options{MaxAttempts: 3, LockoutDuration: 15 * time.Minute})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	g.Verify(1, "0000", meta)
	g.Verify(1, "0000", meta)
	res, err := g.Verify(1, "0000", meta)
	if err != nil {
		t.Fatalf("locking attempt should not error: %v", err)
	}
	if !res.Locked {
		t.Fatal("third failure should lock")
	}
	wantUntil := now.Add(15 * time.Minute)
	if res.LockedUntil == nil || !res.LockedUntil.Equal(wantUntil) {
		t.Errorf("locked until %v, want %v", res.LockedUntil, wantUntil)
	}
	actions := store.actions(1)
	want := []string{
		models.AuditActionSet,
		models.AuditActionFailed,
		models.AuditActionFailed,
		models.AuditActionLocked,
	}
	if len(actions) != len(want) {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit actions = %v, want %v", actions, want)
		}
	}
}

func TestLockedAttemptsDoNotExtendLockout(t *testing.T) {
	store := newFakeStore()
	g, now := newTestGate(store, Options{MaxAttempts: 3, LockoutDuration: 15 * time.Minute})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		g.Verify(1, "0000", meta)
	}
	lockedUntil := *store.security[1].PINLockedUntil

	// Even the correct PIN is rejected while locked.
	*now = now.Add(5 * time.Minute)
	res, err := g.Verify(1, "1234", meta)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
	if res.Success {
		t.Fatal("locked attempt reported success")
	}
	sec := store.security[1]
	if sec.PINAttempts != 3 {
		t.Errorf("attempts = %d, want 3 (no increment while locked)", sec.PINAttempts)
	}
	if !sec.PINLockedUntil.Equal(lockedUntil) {
		t.Errorf("lockout moved from %v to %v", lockedUntil, sec.PINLockedUntil)
	}
	last := store.audit[len(store.audit)-1]
	if last.Action != models.AuditActionFailed || last.Success {
		t.Errorf("locked attempt audited as %q success=%v, want failed/false", last.Action, last.Success)
	}
}

func TestLockoutExpires(t *testing.T) {
	store := newFakeStore()
	g, now := newTestGate(store, Options{MaxAttempts: 3, LockoutDuration: 15 * time.Minute})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		g.Verify(1, "0000", meta)
	}

	// One second before expiry the gate still refuses.
	*now = now.Add(15*time.Minute - time.Second)
	if _, err := g.Verify(1, "1234", meta); !errors.Is(err, ErrLocked) {
		t.Fatalf("err just before expiry = %v, want ErrLocked", err)
	}

	// At expiry the lockout is gone and the correct PIN succeeds.
	*now = now.Add(time.Second)
	res, err := g.Verify(1, "1234", meta)
	if err != nil || !res.Success {
		t.Fatalf("verify after expiry: res=%+v err=%v", res, err)
	}
	if store.security[1].PINAttempts != 0 {
		t.Errorf("attempts = %d, want 0", store.security[1].PINAttempts)
	}
}

func TestVerifyRejectsMalformedPIN(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	auditBefore := len(store.audit)

	for _, bad := range []string{"", "12", "123456789", "12a4", "12 4"} {
		if _, err := g.Verify(1, bad, meta); !errors.Is(err, ErrInvalidPIN) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidPIN", bad, err)
		}
	}
	if store.security[1].PINAttempts != 0 {
		t.Error("malformed input must not count toward lockout")
	}
	if len(store.audit) != auditBefore {
		t.Error("malformed input must not be audited")
	}
}

func TestVerifyWithoutPIN(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})

	if _, err := g.Verify(42, "1234", meta); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}

	store.security[7] = models.UserSecurity{UserID: 7}
	if _, err := g.Verify(7, "1234", meta); !errors.Is(err, ErrPINNotSet) {
		t.Errorf("no-pin user err = %v, want ErrPINNotSet", err)
	}
}

func TestChangePIN(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	if err := g.SetPIN(1, "5678", models.PINAuthorization{CurrentPIN: "1234"}, meta); err != nil {
		t.Fatalf("change: %v", err)
	}
	if res, err := g.Verify(1, "5678", meta); err != nil || !res.Success {
		t.Fatalf("new pin rejected: res=%+v err=%v", res, err)
	}
	if res, _ := g.Verify(1, "1234", meta); res.Success {
		t.Fatal("old pin still verifies after change")
	}
	actions := store.actions(1)
	if actions[1] != models.AuditActionChange {
		t.Errorf("change audited as %q", actions[1])
	}
}

func TestChangePINWrongCurrent(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	err := g.SetPIN(1, "5678", models.PINAuthorization{CurrentPIN: "0000"}, meta)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if res, err := g.Verify(1, "1234", meta); err != nil || !res.Success {
		t.Fatal("original pin must survive a failed change")
	}
	last := store.audit[1]
	if last.Action != models.AuditActionChange || last.Success {
		t.Errorf("failed change audited as %q success=%v", last.Action, last.Success)
	}

	// Missing authorization entirely is the same refusal.
	if err := g.SetPIN(1, "5678", models.PINAuthorization{}, meta); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("no-auth err = %v, want ErrUnauthorized", err)
	}
}

func TestChangePINWhileLocked(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{MaxAttempts: 3})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		g.Verify(1, "0000", meta)
	}

	err := g.SetPIN(1, "5678", models.PINAuthorization{CurrentPIN: "1234"}, meta)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
}

func TestRecoveryFlow(t *testing.T) {
	store := newFakeStore()
	g, now := newTestGate(store, Options{MaxAttempts: 3, RecoveryTTL: time.Hour})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		g.Verify(1, "0000", meta)
	}

	grant, err := g.RequestRecovery(1)
	if err != nil {
		t.Fatalf("request recovery: %v", err)
	}
	if len(grant.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(grant.Token))
	}
	if !grant.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expiry = %v, want %v", grant.ExpiresAt, now.Add(time.Hour))
	}

	// A reset through the token clears the lockout too.
	if err := g.SetPIN(1, "4321", models.PINAuthorization{RecoveryToken: grant.Token}, meta); err != nil {
		t.Fatalf("reset: %v", err)
	}
	sec := store.security[1]
	if sec.PINAttempts != 0 || sec.PINLockedUntil != nil {
		t.Error("reset must clear attempts and lockout")
	}
	if sec.RecoveryToken != "" {
		t.Error("token must be consumed by the reset")
	}
	if res, err := g.Verify(1, "4321", meta); err != nil || !res.Success {
		t.Fatalf("new pin after reset: res=%+v err=%v", res, err)
	}
	actions := store.actions(1)
	if actions[len(actions)-2] != models.AuditActionReset {
		t.Errorf("reset audited as %q", actions[len(actions)-2])
	}

	// The consumed token cannot be replayed.
	err = g.SetPIN(1, "9999", models.PINAuthorization{RecoveryToken: grant.Token}, meta)
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("replay err = %v, want ErrTokenMismatch", err)
	}
}

func TestRecoveryTokenExpiry(t *testing.T) {
	store := newFakeStore()
	g, now := newTestGate(store, Options{RecoveryTTL: time.Hour})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	grant, err := g.RequestRecovery(1)
	if err != nil {
		t.Fatal(err)
	}

	*now = now.Add(time.Hour)
	err = g.SetPIN(1, "4321", models.PINAuthorization{RecoveryToken: grant.Token}, meta)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
	if res, err := g.Verify(1, "1234", meta); err != nil || !res.Success {
		t.Fatal("pin must be unchanged after expired reset")
	}
}

func TestRecoveryReissueInvalidatesPrevious(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	first, err := g.RequestRecovery(1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.RequestRecovery(1)
	if err != nil {
		t.Fatal(err)
	}
	if first.Token == second.Token {
		t.Fatal("reissued token must differ")
	}

	err = g.SetPIN(1, "4321", models.PINAuthorization{RecoveryToken: first.Token}, meta)
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("stale token err = %v, want ErrTokenMismatch", err)
	}
	if err := g.SetPIN(1, "4321", models.PINAuthorization{RecoveryToken: second.Token}, meta); err != nil {
		t.Fatalf("current token rejected: %v", err)
	}
}

func TestRequestRecoveryWithoutPIN(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})

	if _, err := g.RequestRecovery(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
	store.security[1] = models.UserSecurity{UserID: 1}
	if _, err := g.RequestRecovery(1); !errors.Is(err, ErrPINNotSet) {
		t.Errorf("no-pin err = %v, want ErrPINNotSet", err)
	}
}

func TestAuditFailureBlocksSuccess(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	store.failAudit = true
	res, err := g.Verify(1, "1234", meta)
	if err == nil {
		t.Fatal("verify must fail when the audit append fails")
	}
	if res.Success {
		t.Fatal("success reported despite audit failure")
	}
	if err := g.SetPIN(1, "5678", models.PINAuthorization{CurrentPIN: "1234"}, meta); err == nil {
		t.Fatal("change must fail when the audit append fails")
	}
	store.failAudit = false
	if res, _ := g.Verify(1, "5678", meta); res.Success {
		t.Fatal("pin changed despite audit failure")
	}
}

func TestAttemptCommitFailureBlocksResult(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})
	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}

	store.failUpdate = true
	if _, err := g.Verify(1, "0000", meta); err == nil {
		t.Fatal("failure commit error must surface")
	}
	if res, err := g.Verify(1, "1234", meta); err == nil && res.Success {
		t.Fatal("success must not be reported when the counter reset fails")
	}
}

func TestSessionFor(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGate(store, Options{})

	session, err := g.SessionFor(1)
	if err != nil {
		t.Fatal(err)
	}
	if !session.RequiresPINSetup || session.RequiresPIN || session.PINVerified {
		t.Errorf("unknown user session = %+v, want setup required", session)
	}

	store.security[1] = models.UserSecurity{UserID: 1}
	session, _ = g.SessionFor(1)
	if !session.RequiresPINSetup {
		t.Errorf("empty-hash session = %+v, want setup required", session)
	}

	if err := g.SetPIN(1, "1234", models.PINAuthorization{}, meta); err != nil {
		t.Fatal(err)
	}
	session, _ = g.SessionFor(1)
	if !session.RequiresPIN || session.RequiresPINSetup || session.PINVerified {
		t.Errorf("post-setup session = %+v, want verification required", session)
	}
}
