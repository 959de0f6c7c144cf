package callback

import (
	"net/http"
	"time"

	"github.com/go-training/oauth-callback/pkg/core"

	"github.com/gin-gonic/gin"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// LoginPath starts a new authorization flow.
	LoginPath = "/login"
)

// RequestLogger assigns a request id, exposes it on the response and logs each request
// with the request-scoped slog logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := core.WithRequestID(c.Request.Context(), c.GetHeader(RequestIDHeader))
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, core.RequestIDFromContext(ctx))

		c.Next()

		core.LoggerFromCtx(ctx).Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// NewRouter mounts the callback, login and health endpoints.
func NewRouter(h *Handler, callbackPath string) *gin.Engine {
	if callbackPath == "" {
		callbackPath = "/callback"
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET(callbackPath, h.Callback)
	router.GET(LoginPath, h.Login)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}
