package middle

import (
	"net/http"
	"strings"

	"github.com/stagepass/paywidget/infra/config"
	"github.com/stagepass/paywidget/infra/response"
)

// SecurityHeadersMiddleware adds security headers to responses. The CSP
// allows the vendor SDK origins the widget bootstrap endpoint hands out.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Add security headers
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline' https://web.squarecdn.com https://sandbox.web.squarecdn.com https://www.paypal.com; style-src 'self' 'unsafe-inline'; frame-src https://www.paypal.com")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// IPWhitelistMiddleware restricts access to whitelisted IPs (optional)
func IPWhitelistMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get whitelist from environment
			whitelist := config.GetEnv("IP_WHITELIST", "")
			if whitelist == "" {
				// If no whitelist configured, allow all
				next.ServeHTTP(w, r)
				return
			}

			// Parse whitelist
			allowedIPs := strings.Split(whitelist, ",")
			clientIP := GetClientIP(r)

			// Check if client IP is whitelisted
			allowed := false
			for _, ip := range allowedIPs {
				if strings.TrimSpace(ip) == clientIP {
					allowed = true
					break
				}
			}

			if !allowed {
				response.Error(w, http.StatusForbidden, "IP not whitelisted", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestValidationMiddleware validates common request properties
func RequestValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check Content-Type for POST/PUT/PATCH requests
			if r.Method == "POST" || r.Method == "PUT" || r.Method == "PATCH" {
				contentType := r.Header.Get("Content-Type")

				if contentType != "" {
					if !strings.Contains(contentType, "application/json") {
						response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
						return
					}
				} else {
					// Require Content-Type header for API endpoints
					response.Error(w, http.StatusBadRequest, "Content-Type header is required", nil)
					return
				}
			}

			// Check request size (max 1MB; widget events are small)
			if r.ContentLength > 1*1024*1024 {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
