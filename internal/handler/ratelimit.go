package handler

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"snippet-sharing-server/config"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginRateLimiter : ограничение частоты запросов по IP для входа, регистрации и сброса пароля
type LoginRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh chan struct{}
}

func NewLoginRateLimiter(cfg config.RateLimitConfig) *LoginRateLimiter {
	perMinute := cfg.LoginPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = perMinute
	}

	rl := &LoginRateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()

	return rl
}

func (rl *LoginRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiterFor(ip).Allow() {
			zap.L().Warn("превышен лимит запросов", zap.String("ip", ip), zap.String("path", r.URL.Path))
			retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			sendErrorResponse(w, http.StatusTooManyRequests, "слишком много запросов")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *LoginRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter
}

func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *LoginRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
}

// clientIP : RemoteAddr уже переписан middleware.RealIP, если запрос пришёл через прокси
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
