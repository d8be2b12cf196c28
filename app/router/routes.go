// Package router provides HTTP routing, middleware configuration, and server setup for the console
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/handlers"
	"github.com/quickship/charge-console/app/middleware"
	"github.com/quickship/charge-console/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Config carries the router settings taken from the production config.
type Config struct {
	CORSOrigins     []string
	AdminKeyHash    string
	MetricsEnabled  bool
	MetricsPath     string
	GlobalRateLimit int
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                 *fiber.App
	cfg                 Config
	chargeRouteHandler  handlers.ChargeRouteHandlerInterface
	routeCatalogHandler handlers.RouteCatalogHandlerInterface
	dashboardHandler    handlers.DashboardHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg Config,
	chargeRouteHandler handlers.ChargeRouteHandlerInterface,
	routeCatalogHandler handlers.RouteCatalogHandlerInterface,
	dashboardHandler handlers.DashboardHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "QuickShip Charge Console",
		ServerHeader: "QuickShip-Charge-Console",
		ErrorHandler: errorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB, config payloads are small
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                 app,
		cfg:                 cfg,
		chargeRouteHandler:  chargeRouteHandler,
		routeCatalogHandler: routeCatalogHandler,
		dashboardHandler:    dashboardHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the API group and its auth
	if r.cfg.MetricsEnabled {
		metricsPath := r.cfg.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.app.Get(metricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting, no admin key)
	api.Get("/health", r.healthCheck)

	// Apply general rate limiting to all API routes
	rateLimit := r.cfg.GlobalRateLimit
	if rateLimit <= 0 {
		rateLimit = 600
	}
	api.Use(limiter.New(limiter.Config{
		Max:        rateLimit,       // Maximum requests
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// Admin API key protection for everything past the health check
	if r.cfg.AdminKeyHash != "" {
		api.Use(middleware.NewAdminKeyMiddleware(r.cfg.AdminKeyHash).Authenticate())
	}

	// Delivery charge route directory
	chargeRoutes := api.Group("/delivery-charge-routes")
	chargeRoutes.Get("/", r.chargeRouteHandler.ListChargeRoutes)
	chargeRoutes.Get("/search", r.chargeRouteHandler.SearchChargeRoutes)
	chargeRoutes.Get("/export", r.chargeRouteHandler.ExportChargeRoutes)
	chargeRoutes.Get("/:id", r.chargeRouteHandler.GetChargeRoute)
	chargeRoutes.Post("/", r.chargeRouteHandler.CreateChargeRoute)
	chargeRoutes.Put("/:id", r.chargeRouteHandler.UpdateChargeRoute)
	chargeRoutes.Delete("/:id", r.chargeRouteHandler.DeleteChargeRoute)

	// Reference route catalog
	catalog := api.Group("/route-catalog")
	catalog.Get("/", r.routeCatalogHandler.ListRouteCatalog)
	catalog.Get("/points", r.routeCatalogHandler.ListRoutePoints)

	// Delivery dashboard
	api.Get("/delivery-dashboard", r.dashboardHandler.GetDeliverySummary)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000, // 1 year
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware restricted to the admin dashboard origins
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.CORSOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"X-Admin-Key",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Prometheus request metrics
	r.app.Use(middleware.Metrics())

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "charge-console",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
