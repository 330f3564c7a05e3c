package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/api/handlers"
	"github.com/billstock/billstock-api/internal/api/middleware"
	"github.com/billstock/billstock-api/internal/config"
	"github.com/billstock/billstock-api/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	// Create Gin router
	s.Router = gin.New()

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	// Rate limiting middleware
	rateLimiter := middleware.NewRateLimiter(s.config.Security.RateLimit)
	s.Router.Use(rateLimiter.Middleware())

	// Health check endpoints
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	// API v1 routes
	v1 := s.Router.Group("/api/v1")
	{
		membersHandler := handlers.NewMembersHandler(s.services.MemberService, s.logger)

		// Login is the only unauthenticated API route
		v1.POST("/auth/login", membersHandler.Login)

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(s.services.MemberService))
		{
			// Bill inquiry routes
			billsHandler := handlers.NewBillsHandler(s.services.LookupService, s.logger)
			authed.POST("/bills/inquiry", billsHandler.InquireBatch)

			// Stock inventory routes
			stockHandler := handlers.NewStockHandler(s.services.StockService, s.logger)
			stock := authed.Group("/stock")
			{
				stock.GET("", stockHandler.List)
				stock.GET("/:key", stockHandler.Get)
				stock.POST("/import", stockHandler.Import)
				stock.DELETE("/:key", stockHandler.Remove)
			}

			// Sales routes
			salesHandler := handlers.NewSalesHandler(s.services.SalesService, s.logger)
			sales := authed.Group("/sales")
			{
				sales.POST("", salesHandler.Sell)
				sales.GET("", salesHandler.History)
			}

			// CSV export routes
			exportHandler := handlers.NewExportHandler(s.services.StockService, s.services.SalesService, s.logger)
			export := authed.Group("/export")
			{
				export.GET("/stock.csv", exportHandler.ExportStock)
				export.GET("/sales.csv", exportHandler.ExportSales)
			}

			// Member management routes (admin only)
			members := authed.Group("/members")
			members.Use(middleware.AdminOnly())
			{
				members.POST("", membersHandler.Create)
				members.GET("", membersHandler.List)
				members.GET("/:id", membersHandler.Get)
				members.PUT("/:id", membersHandler.Update)
				members.DELETE("/:id", membersHandler.Delete)
			}
		}
	}

	// 404 handler
	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	// 405 handler
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}
