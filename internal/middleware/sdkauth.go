// sdkauth.go authenticates SDK requests signed with a per-project API key:
// headers X-API-Key, X-Timestamp, and X-Signature carry the credential, the
// request time, and an HMAC-SHA256 over the canonical request string.
package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/auth"
	"github.com/pfeak/codegate/internal/services"
)

// Signature headers.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// DefaultTimestampWindow bounds clock skew between SDK clients and the
// server.
const DefaultTimestampWindow = 300 * time.Second

// SDKAuthMiddleware verifies the HMAC signature on SDK requests and scopes
// the request to the key's project. The request body is read for hashing and
// restored for the handler.
func SDKAuthMiddleware(keys *services.APIKeyService, window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = DefaultTimestampWindow
	}
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		tsHeader := c.GetHeader(HeaderTimestamp)
		signature := c.GetHeader(HeaderSignature)
		if apiKey == "" || tsHeader == "" || signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing signature headers",
			})
			return
		}

		ts, err := strconv.ParseInt(tsHeader, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid timestamp",
			})
			return
		}
		skew := time.Since(time.Unix(ts, 0))
		if skew < -window || skew > window {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "request timestamp outside the allowed window",
			})
			return
		}

		key, err := keys.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to resolve api key",
			})
			return
		}
		if key == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unknown or inactive api key",
			})
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "failed to read request body",
				})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		canonical := auth.CanonicalString(c.Request.Method, c.Request.URL.Path, c.Request.URL.Query(), body, ts)
		if !auth.VerifySignature(key.Secret, canonical, signature) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid signature",
			})
			return
		}

		c.Set(ProjectIDKey, key.ProjectID)
		c.Set(APIKeyIDKey, key.ID)
		c.Next()
	}
}
