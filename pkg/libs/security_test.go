package libs

import (
	"testing"
	"time"
)

func TestSecurityManagerRateLimit(t *testing.T) {
	s := NewSecurityManager(time.Minute)

	if s.IsRateLimitedWithMax("client", 3) {
		t.Error("no requests yet, should not be limited")
	}
	for i := 0; i < 3; i++ {
		s.RecordRequest("client")
	}
	if !s.IsRateLimitedWithMax("client", 3) {
		t.Error("limit reached, should be limited")
	}
	if s.IsRateLimitedWithMax("other", 3) {
		t.Error("identifiers must be independent")
	}
}

func TestSecurityManagerWindowExpiry(t *testing.T) {
	s := NewSecurityManager(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		s.RecordRequest("client")
	}
	if !s.IsRateLimitedWithMax("client", 3) {
		t.Fatal("should be limited inside the window")
	}
	time.Sleep(60 * time.Millisecond)
	if s.IsRateLimitedWithMax("client", 3) {
		t.Error("window elapsed, should no longer be limited")
	}
}

func TestSecurityManagerDefaultWindow(t *testing.T) {
	s := NewSecurityManager(0)
	if s.window != time.Minute {
		t.Errorf("window = %v, want 1m default", s.window)
	}
}
