package middleware

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
type SecurityHeadersConfig struct {
	// IsDevelopment skips HSTS so the preview can be served over plain http.
	IsDevelopment bool
	// FrameAncestors lists origins allowed to embed the preview pages,
	// typically the CMS admin panel. Empty means framing is denied.
	FrameAncestors []string
	// CustomCSPDirectives overrides or adds CSP directives.
	CustomCSPDirectives map[string]string
}

// DefaultSecurityHeadersConfig returns a secure default configuration.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{}
}

// SecurityHeaders returns middleware that sets security-related HTTP headers.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := buildCSP(cfg)
	permissions := buildPermissionsPolicy()

	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)

		if !cfg.IsDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// frame-ancestors supersedes X-Frame-Options in browsers that
		// understand it; the legacy header can only say DENY here.
		if len(cfg.FrameAncestors) == 0 {
			c.Header("X-Frame-Options", "DENY")
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", permissions)
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")

		c.Next()
	}
}

// buildCSP constructs the Content-Security-Policy header value. The pages
// carry no scripts; the srcdoc iframe inherits this policy, so email markup
// keeps its inline styles and remote images but can never run script.
func buildCSP(cfg SecurityHeadersConfig) string {
	directives := map[string]string{
		"default-src":     "'self'",
		"script-src":      "'none'",
		"style-src":       "'self' 'unsafe-inline'",
		"img-src":         "'self' data: https:",
		"font-src":        "'self' data: https:",
		"connect-src":     "'self'",
		"frame-src":       "'self'",
		"object-src":      "'none'",
		"base-uri":        "'self'",
		"form-action":     "'self'",
		"frame-ancestors": "'none'",
	}

	if len(cfg.FrameAncestors) > 0 {
		directives["frame-ancestors"] = "'self' " + strings.Join(cfg.FrameAncestors, " ")
	}
	if cfg.IsDevelopment {
		directives["img-src"] = "'self' data: http: https:"
	}

	for key, value := range cfg.CustomCSPDirectives {
		directives[key] = value
	}

	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+directives[k])
	}
	return strings.Join(parts, "; ")
}

// buildPermissionsPolicy constructs the Permissions-Policy header value.
func buildPermissionsPolicy() string {
	policies := []string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}

	return strings.Join(policies, ", ")
}
