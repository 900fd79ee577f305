package websession

import "github.com/gin-gonic/gin"

// apiHeaders are set on every response. The server only answers JSON, so
// nothing may be framed, sniffed or cached; review sessions carry
// publication lists and connected Zotero users.
var apiHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
	{"Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()"},
}

// SecurityHeadersMiddleware adds apiHeaders to all responses.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range apiHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}

// StrictTransportSecurityMiddleware adds HSTS on requests that arrived over
// TLS, directly or behind a proxy. Enable it only together with secure
// cookies.
func StrictTransportSecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
