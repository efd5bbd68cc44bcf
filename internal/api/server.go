package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bilet/internal/cache"
	"bilet/internal/clock"
	"bilet/internal/config"
	"bilet/internal/database"
	"bilet/internal/external"
	"bilet/internal/handlers"
	"bilet/internal/messaging"
	"bilet/internal/middleware"
	"bilet/internal/monitoring"
	"bilet/internal/repository"
	"bilet/internal/service"
)

// Server is the HTTP API server with all its wired dependencies.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
	monitor  *monitoring.Monitor
}

// NewServer connects to the database, NATS and Valkey, runs migrations
// and wires repositories, services and routes.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		// Auth falls back to the database, rate limiting is disabled.
		log.Printf("Valkey unavailable, continuing without cache: %v", err)
		valkeyClient = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, natsClient, paymentClient, clock.NewSystem())

	monitor := monitoring.NewMonitor(db)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
		monitor:  monitor,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	api.Use(middleware.RateLimit(s.valkey, s.config.RateLimitMax, s.config.RateLimitWindow))
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
		}

		reservations := api.Group("/reservations")
		{
			reservations.POST("", h.CreateReservation)
			reservations.GET("", h.ListReservations)
			reservations.GET("/:id", h.GetReservation)
			reservations.PATCH("/cancel", h.CancelReservation)
			reservations.PATCH("/pay", h.PayReservation)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("", h.ListTickets)
			tickets.POST("/verify", h.VerifyTicket)
		}

		transfers := api.Group("/transfers")
		{
			transfers.POST("/initiate", h.InitiateTransfer)
			transfers.PATCH("/accept", h.AcceptTransfer)
			transfers.PATCH("/reject", h.RejectTransfer)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   check.Status,
		"service":  "bilet-api",
		"database": check,
	})
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes connections in reverse dependency order.
func (s *Server) Cleanup() error {
	if s.monitor != nil {
		s.monitor.Stop()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
