package websession

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header name for CSRF token in AJAX requests.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfContextKey = "csrf_token"

// SkipFunc reports whether a request is exempt from CSRF checks.
type SkipFunc func(c *gin.Context) bool

// CSRFMiddleware protects the browser review routes. Safe methods pass
// through and get a token; skip may exempt API clients that authenticate
// with a token header.
func CSRFMiddleware(secret []byte, secure bool, skip SkipFunc) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if skip != nil && skip(c) {
			c.Next()
			return
		}

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Header(CSRFTokenHeader, csrf.Token(r))
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, req)
		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing","code":"CSRF_FAILED"}`))
}

// HasTokenAuth reports whether the request carries an "Authorization: Token"
// header equal to token. An empty token never matches.
func HasTokenAuth(c *gin.Context, token string) bool {
	if token == "" {
		return false
	}
	got, ok := TokenFromHeader(c.GetHeader("Authorization"))
	return ok && got == token
}

// TokenFromHeader extracts the value of an "Authorization: Token <value>" header.
func TokenFromHeader(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "token") {
		return "", false
	}
	value := strings.TrimSpace(parts[1])
	return value, value != ""
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfContextKey); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
