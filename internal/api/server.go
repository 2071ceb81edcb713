package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"

	"github.com/blockedby/channel-stats/internal/logger"
)

// Server represents the Fuego API server.
type Server struct {
	fuego *fuego.Server
	deps  *Dependencies
	log   *logger.Logger
	port  int
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	Ingester     Ingester
	ChannelsRepo ChannelsRepository
	Telegram     TelegramStatus
	DB           Pinger
	Logger       *logger.Logger
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				JSONFilePath:     "openapi.json",
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
			}),
		),
	)

	// Set OpenAPI info
	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// Add Chi middleware (Fuego is net/http compatible)
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Logger)
	fuego.Use(s, middleware.Recoverer)
	fuego.Use(s, cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	srv := &Server{
		fuego: s,
		deps:  deps,
		log:   log.Component("api"),
		port:  cfg.Port,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	// Health check
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Channels API
	channelsGroup := fuego.Group(s.fuego, "/api/v1/channels",
		option.Tags("Channels"),
	)

	fuego.Post(channelsGroup, "/ingest", s.ingestChannel,
		option.Summary("Ingest Channel"),
		option.Description("Fetches a channel once, upserts it and appends a stats snapshot with daily growth"),
	)

	fuego.Get(channelsGroup, "/", s.listChannels,
		option.Summary("List Channels"),
		option.Description("Returns channels ordered by last ingestion, newest first"),
		option.Query("limit", "Items per page (default: 50, max: 500)"),
		option.Query("offset", "Items to skip (default: 0)"),
	)

	fuego.Get(channelsGroup, "/{channel_id}", s.getChannel,
		option.Summary("Get Channel"),
		option.Description("Returns a channel with its messages and stats history"),
		option.Query("stats_limit", "Number of stats snapshots (default: 30, max: 365)"),
	)

	// Telegram API
	fuego.Get(s.fuego, "/api/v1/telegram/status", s.getTelegramStatus,
		option.Summary("Get Telegram Status"),
		option.Description("Returns the MTProto client status"),
		option.Tags("Telegram"),
	)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("api server listening")
	return s.fuego.Run()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.fuego.Shutdown(ctx)
}

// Handler returns the routes without the global middleware.
func (s *Server) Handler() http.Handler {
	return s.fuego.Mux
}
