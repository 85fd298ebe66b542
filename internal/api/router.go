package api

import (
	"net/http"
	"time"

	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

type RouterConfig struct {
	Analyzer *analysis.Analyzer
	Digests  DigestChecker
	// Timeout bounds digest lookups on /v1/check/hash.
	Timeout time.Duration
	// RateLimit is requests per second across all clients, zero disables limiting.
	RateLimit float64
	RateBurst int
	Debug     bool
}

// NewRouter builds the gin engine with the /v1 API mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(logger.SetLogger(logger.WithLogger(func(c *gin.Context, z zerolog.Logger) zerolog.Logger {
		return zerolog.New(gin.DefaultWriter).With().Timestamp().Str(requestIDKey, c.GetString(requestIDKey)).Logger()
	})))

	if cfg.RateLimit > 0 {
		router.Use(rateLimit(cfg.RateLimit, cfg.RateBurst))
	}

	v1 := router.Group("/v1")
	RegisterQueryApi(v1, cfg.Analyzer, cfg.Digests, cfg.Timeout)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// requestID keeps a well formed incoming X-Request-ID or issues a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// rateLimit sheds load before it reaches the range endpoint, whose operator rate limits us in turn.
func rateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
