package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginChecker accepts same-site browser connections only. Requests without
// an Origin header come from non-browser clients and are let through because
// the session cookie still has to authenticate them.
func OriginChecker(appURL string, development bool) func(r *http.Request) bool {
	allowed := originOf(appURL)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed != "" && strings.EqualFold(origin, allowed) {
			return true
		}
		if development && isLoopback(origin) {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
