package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/config"
	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
	"github.com/aristath/fpl-planner/internal/modules/planner"
	"github.com/aristath/fpl-planner/internal/modules/plans"
	"github.com/aristath/fpl-planner/internal/modules/players"
	"github.com/aristath/fpl-planner/internal/modules/squad"
	"github.com/aristath/fpl-planner/internal/modules/transfers"
	"github.com/aristath/fpl-planner/internal/scheduler"
	"github.com/aristath/fpl-planner/internal/snapshots"
	"github.com/aristath/fpl-planner/internal/solver"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	PlannerDB *database.DB
	CacheDB   *database.DB
	Config    *config.Config
	Port      int
	DevMode   bool
	Scheduler *scheduler.Scheduler
	Events    *events.Manager
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	plannerDB      *database.DB
	cacheDB        *database.DB
	cfg            *config.Config
	scheduler      *scheduler.Scheduler
	events         *events.Manager
	squads         *squad.Service
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Shared squad service: the planner, the squad API, and the system
	// status all read the bootstrap feed through it, so the snapshot
	// cache is hit once per TTL window no matter who asks.
	fplClient := fpl.NewClient(cfg.Config.FPLBaseURL, cfg.Log)
	snapshotStore := snapshots.NewStore(cfg.CacheDB.Conn())
	transfersRepo := transfers.NewRepository(cfg.PlannerDB.Conn(), cfg.Log)
	squadService := squad.NewService(fplClient, snapshotStore, transfersRepo, cfg.Log)

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.PlannerDB,
		cfg.CacheDB,
		cfg.Scheduler,
		squadService,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		plannerDB:      cfg.PlannerDB,
		cacheDB:        cfg.CacheDB,
		cfg:            cfg.Config,
		scheduler:      cfg.Scheduler,
		events:         cfg.Events,
		squads:         squadService,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System monitoring and job triggers
		s.setupSystemRoutes(r)

		// Player pool
		s.setupPlayersRoutes(r)

		// Squad state
		s.setupSquadRoutes(r)

		// Transfer planner
		s.setupPlannerRoutes(r)
	})
}

// setupSystemRoutes configures system monitoring and operations routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	systemHandlers := s.systemHandlers

	r.Route("/system", func(r chi.Router) {
		// Status and monitoring
		r.Get("/status", systemHandlers.HandleSystemStatus)
		r.Get("/deadline", systemHandlers.HandleDeadline)
		r.Get("/database/stats", systemHandlers.HandleDatabaseStats)

		// Job registry and manual triggers
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", systemHandlers.HandleJobsStatus)
			r.Post("/{name}", systemHandlers.HandleTriggerJob)
		})
	})
}

// setupPlayersRoutes configures player pool routes
func (s *Server) setupPlayersRoutes(r chi.Router) {
	repo := players.NewRepository(s.plannerDB.Conn(), s.log)
	service := players.NewService(repo, s.log)
	handler := players.NewPlayersHandlers(repo, service, s.log)

	r.Route("/players", func(r chi.Router) {
		r.Get("/", handler.HandleListPlayers)
		r.Get("/stats", handler.HandlePoolStats)
		r.Get("/{id}", handler.HandleGetPlayer)
	})
}

// setupSquadRoutes configures squad state routes
func (s *Server) setupSquadRoutes(r chi.Router) {
	handler := squad.NewSquadHandlers(s.squads, s.log)

	r.Route("/squad", func(r chi.Router) {
		r.Get("/{entryID}", handler.HandleGetSquad)
	})
}

// setupPlannerRoutes configures transfer planner routes
func (s *Server) setupPlannerRoutes(r chi.Router) {
	// Solver transports. The HTTP service is the primary when configured;
	// the subprocess invocation covers single-box deployments without it.
	var primary, fallback solver.Client
	if s.cfg.SolverServiceURL != "" {
		primary = solver.NewHTTPClient(s.cfg.SolverServiceURL, s.cfg.SolverTimeout, s.log)
		if s.cfg.SolverScriptPath != "" {
			fallback = solver.NewSubprocessClient(s.cfg.SolverPython, s.cfg.SolverScriptPath, s.cfg.SolverTimeout, s.log)
		}
	} else {
		primary = solver.NewSubprocessClient(s.cfg.SolverPython, s.cfg.SolverScriptPath, s.cfg.SolverTimeout, s.log)
	}

	optimizerService := optimizer.NewService(primary, fallback, s.log)
	plannerService := planner.NewService(optimizerService, s.log)
	builder := candidates.NewBuilder(s.log)
	plansRepo := plans.NewRepository(s.plannerDB.Conn(), s.log)

	plannerHandlers := planner.NewPlannerHandlers(
		s.squads,
		builder,
		plannerService,
		plansRepo,
		s.events,
		planner.RunDefaults{
			Horizon:      s.cfg.DefaultHorizon,
			MaxTransfers: s.cfg.DefaultMaxTransfers,
		},
		s.log,
	)
	plansHandlers := plans.NewPlansHandlers(plansRepo, s.log)

	r.Route("/planner", func(r chi.Router) {
		r.Get("/", plannerHandlers.HandleGetStatus)
		r.Post("/run", plannerHandlers.HandleRun)
		r.Get("/history", plansHandlers.HandleGetHistory)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
