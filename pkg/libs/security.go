package libs

import (
	"sync"
	"time"

	"github.com/oarkflow/pinauth/pkg/models"
)

const maxRequestsPerWindow = 30

// SecurityManager keeps per-identifier sliding windows of requests for
// the HTTP rate limiting middleware. PIN attempt counting lives in the
// durable attempt tracker, not here; this only shields endpoints from
// request floods.
type SecurityManager struct {
	RateLimiter *models.RateLimiter
	window      time.Duration
	mu          sync.RWMutex
}

func NewSecurityManager(window time.Duration) *SecurityManager {
	if window <= 0 {
		window = time.Minute
	}
	return &SecurityManager{
		RateLimiter: &models.RateLimiter{
			Requests: make(map[string][]time.Time),
		},
		window: window,
	}
}

func (s *SecurityManager) IsRateLimited(identifier string) bool {
	return s.IsRateLimitedWithMax(identifier, maxRequestsPerWindow)
}

func (s *SecurityManager) IsRateLimitedWithMax(identifier string, maxRequests int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	requests, exists := s.RateLimiter.Requests[identifier]
	if !exists {
		return false
	}

	count := 0
	for _, reqTime := range requests {
		if now.Sub(reqTime) < s.window {
			count++
		}
	}

	return count >= maxRequests
}

func (s *SecurityManager) RecordRequest(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	requests := append(s.RateLimiter.Requests[identifier], now)

	// Drop entries older than the window while recording.
	filtered := requests[:0]
	for _, reqTime := range requests {
		if now.Sub(reqTime) < s.window {
			filtered = append(filtered, reqTime)
		}
	}
	s.RateLimiter.Requests[identifier] = filtered
}
