// Package api wires the HTTP job API.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/api/handler"
	"github.com/humbal1/pierce-doc-links-scrapper/api/middleware"
	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/proxy"
	"github.com/humbal1/pierce-doc-links-scrapper/results"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
)

// Deps are the collaborators behind the routes. Queue may be nil when no
// spreadsheet is configured.
type Deps struct {
	Jobs      handler.JobService
	Queue     handler.SheetQueue
	Catalog   handler.Catalog
	Results   *results.Store
	Proxy     *proxy.Fetcher
	Sessions  session.Store
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// The returned RateLimiter must be closed on shutdown.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring probes always work.
func NewRouter(d Deps, cfg *config.Config) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(d.Jobs, d.Sessions, d.Queue != nil, d.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	protected.Use(limiter.Handler())

	// Jobs
	protected.POST("/jobs", handler.StartJob(d.Jobs))
	protected.GET("/jobs", handler.ListJobs(d.Jobs))
	protected.GET("/jobs/:id", handler.GetJob(d.Jobs))

	// Work queue
	protected.GET("/sheet/sync", handler.SheetSync(d.Queue))
	protected.POST("/sheet/update", handler.SheetUpdate(d.Queue))
	protected.POST("/auto-sync", handler.AutoSync(d.Jobs, d.Queue))

	// Results
	protected.GET("/results", handler.ListResults(d.Results))
	protected.GET("/results/:filename", handler.DownloadResult(d.Results))

	// Records site
	protected.GET("/image-proxy", handler.ImageProxy(d.Proxy))
	protected.GET("/document-types", handler.DocumentTypes(d.Catalog))

	return r, limiter
}
