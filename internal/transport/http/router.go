package httptransport

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
	"donotts-server-go/internal/platform/logging"
)

// Options configures the router builder.
type Options struct {
	Config *config.Config
	Logger *logging.Logger
}

// Router bundles the gin engine with the /api route group services register
// onto.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

// Build constructs a gin engine with recovery, request logging and CORS.
func Build(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.KindConfig, "http.Build", "router requires config")
	}

	if opts.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(opts.Logger))
	engine.SetTrustedProxies(nil)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	return &Router{
		Engine: engine,
		API:    engine.Group("/api"),
	}, nil
}

// loggingMiddleware logs each request with latency and status.
func loggingMiddleware(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.DebugTag("HTTP", "%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
