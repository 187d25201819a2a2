package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/studio-directory/internal/cache"
	"github.com/magabrotheeeer/studio-directory/internal/http/response"
	"github.com/magabrotheeeer/studio-directory/internal/lib/sl"
)

var limiter = rate.NewLimiter(10, 30)

// RateLimitMiddleware ограничивает частоту запросов: счётчик по IP клиента в
// redis, при недоступности redis — общий in-process лимитер.
func RateLimitMiddleware(c *cache.Cache, maxPerMinute int64, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			count, err := c.IncrementWithTTL(r.Context(), "ratelimit:"+host, time.Minute)
			if err != nil {
				log.Error("rate limit cache unavailable", sl.Err(err))
				if !limiter.Allow() {
					w.WriteHeader(http.StatusTooManyRequests)
					render.JSON(w, r, response.Error("too many requests"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if count > maxPerMinute {
				log.Info("too many requests", slog.String("client", host))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
