// Package httplog wraps an http.RoundTripper with structured request
// logging, grounded on the teacher's log/slog usage in cmd/isengard.
package httplog

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// RoundTripper logs each outbound request's method, redacted URL, status,
// and duration at debug level, and non-2xx responses at warn level.
type RoundTripper struct {
	Next   http.RoundTripper
	Logger *slog.Logger
}

// New wraps next (http.DefaultTransport if nil) with request logging.
// A nil logger falls back to slog.Default().
func New(next http.RoundTripper, logger *slog.Logger) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundTripper{Next: next, Logger: logger}
}

func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.Next.RoundTrip(req)
	elapsed := time.Since(start)

	redacted := redactURL(req.URL)

	if err != nil {
		rt.Logger.Debug("registry request failed", "method", req.Method, "url", redacted, "duration", elapsed, "error", err)
		return resp, err
	}

	level := slog.LevelDebug
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		level = slog.LevelWarn
	}
	rt.Logger.Log(req.Context(), level, "registry request", "method", req.Method, "url", redacted, "status", resp.StatusCode, "duration", elapsed)

	return resp, err
}

// redactURL strips user-info (credentials embedded in a URL) before
// logging, in case a caller ever constructs a request that way.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.User == nil {
		return u.String()
	}
	redacted := *u
	redacted.User = url.UserPassword("redacted", "redacted")
	return redacted.String()
}
