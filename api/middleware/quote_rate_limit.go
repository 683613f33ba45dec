package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/catering-backend/api/responses"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type rateLimitRecorder interface {
	IncRateLimited()
}

// QuoteRateLimit caps public quote submissions per client address in a fixed
// window. A zero window or limit disables it. The router runs chi's RealIP
// first, so RemoteAddr already reflects proxy headers.
func QuoteRateLimit(window time.Duration, limit int, store fixedWindowLimiter, rec rateLimitRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	if window <= 0 || limit <= 0 || store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	retryAfter := strconv.Itoa(int(window.Round(time.Second) / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := remoteHost(r.RemoteAddr)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, "quote:ip:"+ip, int64(limit), window)
			switch {
			case err != nil:
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
			case !allowed:
				if rec != nil {
					rec.IncRateLimited()
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"ip":       ip,
						"attempts": count,
						"limit":    limit,
					}), "quote submission throttled")
				}
				w.Header().Set("Retry-After", retryAfter)
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many quote requests, try again later"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
