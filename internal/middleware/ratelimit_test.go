package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowAndDeny(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(2, time.Minute, func() time.Time { return clock })

	if !rl.Allow("ip") {
		t.Fatalf("expected allow")
	}
	if !rl.Allow("ip") {
		t.Fatalf("expected allow")
	}
	if rl.Allow("ip") {
		t.Fatalf("expected deny")
	}
	if !rl.Allow("other-ip") {
		t.Fatalf("expected keys to be limited independently")
	}

	clock = clock.Add(time.Minute + time.Second)
	if !rl.Allow("ip") {
		t.Fatalf("expected allow after window")
	}
}

func TestRateLimiter_PruneIdleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return clock })
	rl.Allow("a")

	clock = clock.Add(2 * time.Minute)
	rl.prune()
	if len(rl.buckets) != 0 {
		t.Fatalf("expected idle bucket to be pruned, have %d", len(rl.buckets))
	}
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiterWithNow(1, time.Minute, func() time.Time { return clock })

	r := gin.New()
	r.POST("/login", RateLimitMiddleware(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}
