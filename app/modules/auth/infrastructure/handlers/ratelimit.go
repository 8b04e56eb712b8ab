package authhandlers

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	authdomain "github.com/Black-And-White-Club/podium-bot/app/modules/auth/domain"
	"github.com/Black-And-White-Club/podium-bot/app/shared/clock"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	"golang.org/x/time/rate"
)

// callerIdleTTL is how long a caller's bucket survives without requests.
const callerIdleTTL = 10 * time.Minute

type callerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CallerRateLimiter keeps one token bucket per caller. Authenticated callers
// are keyed by user, anonymous ones by remote address.
type CallerRateLimiter struct {
	clock     clock.Clock
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	buckets   map[string]*callerBucket
	lastSweep time.Time
}

func NewCallerRateLimiter(clk clock.Clock, limit rate.Limit, burst int) *CallerRateLimiter {
	return &CallerRateLimiter{
		clock:     clk,
		limit:     limit,
		burst:     burst,
		buckets:   make(map[string]*callerBucket),
		lastSweep: clk.Now(),
	}
}

// reserve takes one token for key. It returns the wait before the request
// would be admitted, or ok=false when it never will be.
func (l *CallerRateLimiter) reserve(key string) (wait time.Duration, ok bool) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= callerIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= callerIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, found := l.buckets[key]
	if !found {
		b = &callerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0, false
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return wait, true
	}
	return 0, true
}

func callerKey(r *http.Request) string {
	if claims, ok := authdomain.ClaimsFromContext(r.Context()); ok {
		return "user:" + claims.UserID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

// RateLimitMiddleware rejects callers that exhausted their bucket with 429
// and a Retry-After hint when one can be computed.
func RateLimitMiddleware(limiter *CallerRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wait, ok := limiter.reserve(callerKey(r))
			switch {
			case !ok:
				httputil.WriteError(w, http.StatusTooManyRequests, "request limit reached")
				return
			case wait > 0:
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				httputil.WriteError(w, http.StatusTooManyRequests, fmt.Sprintf("request limit reached, retry in %ds", secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
