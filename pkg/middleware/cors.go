package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/pkg/config"
)

var (
	// CORSMethods are the methods browsers may use cross-origin
	CORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	// CORSHeaders are the request headers browsers may send cross-origin
	CORSHeaders = []string{"Content-Type", "Authorization"}
)

// NewOriginAllowList builds the set of admitted browser origins from the
// configured frontend URLs plus the local development origins. A single
// trailing slash is dropped from each entry; empty entries are skipped.
func NewOriginAllowList(frontendURLs, devOrigins []string) []string {
	seen := make(map[string]bool)
	list := make([]string, 0, len(frontendURLs)+len(devOrigins))
	for _, group := range [][]string{frontendURLs, devOrigins} {
		for _, o := range group {
			o = strings.TrimSuffix(strings.TrimSpace(o), "/")
			if o == "" || seen[o] {
				continue
			}
			seen[o] = true
			list = append(list, o)
		}
	}
	return list
}

// IsAllowedOrigin reports whether a request carrying origin may proceed.
// Requests without an Origin header are not browser cross-origin requests
// and are always admitted. Otherwise origin must equal an allow-list entry.
func IsAllowedOrigin(origin string, allowList []string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range allowList {
		if origin == allowed {
			return true
		}
	}
	return false
}

// CORS returns the admission filter for browser cross-origin requests.
// Admitted origins are echoed back exactly with credentials allowed;
// rejected origins get 403 and never reach a route handler.
func CORS(cfg config.CORSConfig, allowList []string, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("cors")
	origins := append([]string(nil), allowList...)

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if IsAllowedOrigin(origin, origins) {
				return true
			}
			logger.Warn("Blocked request from disallowed origin", zap.String("origin", origin))
			return false
		},
		AllowMethods:     CORSMethods,
		AllowHeaders:     CORSHeaders,
		AllowCredentials: true,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	})
}

// PreflightFallback answers OPTIONS requests the CORS filter left alone,
// such as probes that send no Origin header.
func PreflightFallback() gin.HandlerFunc {
	methods := strings.Join(CORSMethods, ",")
	headers := strings.Join(CORSHeaders, ",")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
