package middleware

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"faircircle/pkg/requestcontext"
)

// Device derives a human-readable device name from the user agent and stores
// it in the context for audit trails.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), ParseUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseUserAgent renders a user-agent string as "Browser on Platform".
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown Platform"
	}

	return fmt.Sprintf("%s on %s", browser, platform)
}
