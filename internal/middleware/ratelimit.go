package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit caps requests per client address with a token bucket that
// refills over the window and allows the full limit as burst. Entries
// idle for three windows are pruned once the table grows large.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	visitors := map[string]*visitor{}
	refill := rate.Every(window / time.Duration(limit))
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			now := time.Now()

			mu.Lock()
			v, ok := visitors[addr]
			if !ok {
				if len(visitors) >= 4096 {
					for a, seen := range visitors {
						if now.Sub(seen.lastSeen) > 3*window {
							delete(visitors, a)
						}
					}
				}
				v = &visitor{limiter: rate.NewLimiter(refill, limit)}
				visitors[addr] = v
			}
			v.lastSeen = now
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr prefers the first valid X-Forwarded-For hop so limits
// hold behind the reverse proxy.
func clientAddr(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); ip != "" && net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
