// Package relay serves the two credential-attaching passthrough endpoints:
// a streaming chat completion proxy and a random background image lookup.
package relay

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	ChatPath  = "/api/openrouter"
	ImagePath = "/api/unsplash-random"

	DefaultChatUpstream  = "https://openrouter.ai/api/v1/chat/completions"
	DefaultImageUpstream = "https://api.unsplash.com/photos/random"
	DefaultImageWidth    = 1920
)

type Config struct {
	ChatUpstreamURL  string
	ChatAPIKey       string
	ImageUpstreamURL string
	ImageAccessKey   string
	ImageWidth       int
}

type Server struct {
	engine *gin.Engine
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewServer wires the routes. httpClient is used for both upstreams and must
// not carry a Timeout, or long streams would be cut off.
func NewServer(cfg Config, httpClient *http.Client, logger *zap.Logger) *Server {
	if cfg.ChatUpstreamURL == "" {
		cfg.ChatUpstreamURL = DefaultChatUpstream
	}
	if cfg.ImageUpstreamURL == "" {
		cfg.ImageUpstreamURL = DefaultImageUpstream
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = DefaultImageWidth
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	s := &Server{
		engine: gin.New(),
		cfg:    cfg,
		client: httpClient,
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	e := s.engine
	e.HandleMethodNotAllowed = true

	e.Use(gin.Recovery())
	e.Use(allowAnyOrigin())
	e.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization", "Cache-Control", "Accept"},
		MaxAge:          24 * time.Hour,
	}))
	e.Use(requestLogger(s.logger))
	e.Use(metricsMiddleware())

	e.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	})
	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})

	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	e.POST(ChatPath, s.handleChat)
	e.OPTIONS(ChatPath, preflight)
	e.GET(ImagePath, s.handleImage)
	e.OPTIONS(ImagePath, preflight)
}

// allowAnyOrigin sets the CORS origin header on every response, including
// errors and requests that carry no Origin header.
func allowAnyOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Relay request failed", fields...)
			return
		}
		logger.Info("Relay request", fields...)
	}
}

func errorBody(message string) gin.H {
	return gin.H{"error": message}
}
