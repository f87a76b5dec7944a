package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aerofans/apiserver/config"
	"github.com/aerofans/apiserver/internal/db"
	"github.com/aerofans/apiserver/internal/handlers"
	"github.com/aerofans/apiserver/internal/services"
	"github.com/aerofans/apiserver/internal/store"
)

// sessionSweepInterval is how often expired sessions are reaped. Expiry is
// enforced lazily on every lookup; the sweep only keeps the table small.
const sessionSweepInterval = 15 * time.Minute

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	sweeper    *sessionSweeper
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	replyRepo := store.NewReplyRepository(dbConn)

	authService := services.NewAuthService(userRepo, sessionRepo)
	postService := services.NewPostService(postRepo)
	replyService := services.NewReplyService(replyRepo)

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authService)
	router.Route("/post", func(r chi.Router) {
		handlers.PostRouter(r, postService, replyService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8443
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		sweeper:    newSessionSweeper(authService, sessionSweepInterval),
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server and the session sweeper.
func (s *Server) Start() error {
	s.sweeper.Start()
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	s.sweeper.Stop()
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// sessionSweeper periodically deletes expired sessions.
type sessionSweeper struct {
	authService *services.AuthService
	interval    time.Duration
	stop        chan struct{}
}

func newSessionSweeper(authService *services.AuthService, interval time.Duration) *sessionSweeper {
	return &sessionSweeper{
		authService: authService,
		interval:    interval,
		stop:        make(chan struct{}),
	}
}

func (sw *sessionSweeper) Start() {
	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.sweep()
			case <-sw.stop:
				return
			}
		}
	}()
}

func (sw *sessionSweeper) Stop() {
	close(sw.stop)
}

func (sw *sessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := sw.authService.SweepExpiredSessions(ctx)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("session sweep removed %d expired sessions", deleted)
	}
}
