package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// NewLogger logs JSON in production and readable text, including debug
// messages, everywhere else.
func NewLogger(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// RequestLogger logs one line per request once it is answered.  Production
// lines carry what an access log would; development lines are short.
func RequestLogger(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			if production {
				logger.Info("request",
					"remote", r.RemoteAddr,
					"method", r.Method,
					"uri", r.RequestURI,
					"proto", r.Proto,
					"status", m.Code,
					"bytes", m.Written,
					"duration", m.Duration,
					"referer", r.Referer(),
					"user_agent", r.UserAgent())
				return
			}
			logger.Debug(r.Method+" "+r.URL.Path, "status", m.Code, "duration", m.Duration, "bytes", m.Written)
		})
	}
}
