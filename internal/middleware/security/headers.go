package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HeadersConfig is the response header policy for one family of routes.
// Empty values are not sent.
type HeadersConfig struct {
	CSP                 string
	FrameOptions        string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginEmbedder string
	CrossOriginResource string

	// HSTSMaxAge is only advertised on requests that arrived over HTTPS.
	HSTSMaxAge time.Duration

	// HardenCookies adds HttpOnly and SameSite to every Set-Cookie that
	// lacks them, and Secure when the request arrived over HTTPS.
	HardenCookies bool
}

// DefaultHeadersConfig is the policy for server rendered pages. Scripts may
// come from unpkg for htmx.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: strings.Join([]string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		}, "; "),
		FrameOptions:        "DENY",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginEmbedder: "credentialless",
		CrossOriginResource: "same-origin",
		HSTSMaxAge:          365 * 24 * time.Hour,
		HardenCookies:       true,
	}
}

// APIHeadersConfig is the policy for JSON responses, which never load
// subresources.
func APIHeadersConfig() HeadersConfig {
	c := DefaultHeadersConfig()
	c.CSP = "default-src 'none'; frame-ancestors 'none'"
	c.CrossOriginEmbedder = ""
	return c
}

// HeadersMiddleware sets a fixed header policy on every response.
type HeadersMiddleware struct {
	static  http.Header
	hsts    string
	cookies bool
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	static := http.Header{}
	static.Set("X-Content-Type-Options", "nosniff")
	for name, value := range map[string]string{
		"Content-Security-Policy":      config.CSP,
		"X-Frame-Options":              config.FrameOptions,
		"Referrer-Policy":              config.ReferrerPolicy,
		"Permissions-Policy":           config.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   config.CrossOriginOpener,
		"Cross-Origin-Embedder-Policy": config.CrossOriginEmbedder,
		"Cross-Origin-Resource-Policy": config.CrossOriginResource,
	} {
		if value != "" {
			static.Set(name, value)
		}
	}

	h := &HeadersMiddleware{static: static, cookies: config.HardenCookies}
	if config.HSTSMaxAge > 0 {
		h.hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(config.HSTSMaxAge/time.Second))
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for name, values := range h.static {
			headers[name] = append([]string(nil), values...)
		}
		https := IsHTTPS(r)
		if https && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		if h.cookies {
			w = &cookieWriter{ResponseWriter: w, secure: https}
		}
		next.ServeHTTP(w, r)
	})
}

// IsHTTPS reports whether the request reached us, or the proxy in front of
// us, over TLS.
func IsHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// cookieWriter rewrites Set-Cookie headers just before the status line goes out.
type cookieWriter struct {
	http.ResponseWriter
	secure      bool
	wroteHeader bool
}

func (w *cookieWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	headers := w.ResponseWriter.Header()
	if cookies := headers["Set-Cookie"]; len(cookies) > 0 {
		hardened := make([]string, len(cookies))
		for i, c := range cookies {
			hardened[i] = hardenCookie(c, w.secure)
		}
		headers["Set-Cookie"] = hardened
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// hardenCookie appends the attributes cookie is missing. An explicit
// SameSite is kept as is.
func hardenCookie(cookie string, secure bool) string {
	parts := strings.Split(cookie, ";")
	var hasSecure, hasHTTPOnly, hasSameSite bool
	for i, p := range parts {
		p = strings.TrimSpace(p)
		lower := strings.ToLower(p)
		switch {
		case lower == "secure":
			hasSecure = true
		case lower == "httponly":
			hasHTTPOnly = true
		case strings.HasPrefix(lower, "samesite"):
			hasSameSite = true
		}
		parts[i] = p
	}

	if secure && !hasSecure {
		parts = append(parts, "Secure")
	}
	if !hasHTTPOnly {
		parts = append(parts, "HttpOnly")
	}
	if !hasSameSite {
		parts = append(parts, "SameSite=Lax")
	}
	return strings.Join(parts, "; ")
}

// StaticAssetMiddleware marks embedded assets as cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
