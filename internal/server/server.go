// Package server exposes the answer pipeline and the content-generation
// flow over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/h5p"
	"github.com/ziadkadry99/lmsbot/internal/orchestrator"
)

// Config holds server configuration.
type Config struct {
	Port int
	// AllowedOrigins is the CORS allowlist; empty means localhost only.
	AllowedOrigins []string
}

// answerer is the slice of the orchestrator the server needs.
type answerer interface {
	Answer(ctx context.Context, q orchestrator.Query) (*orchestrator.Answer, error)
}

// Clearer is a process-wide cache that can be emptied on request.
type Clearer interface {
	Clear()
}

// Server routes chatbot traffic to the answer pipeline and the content
// state machine.
type Server struct {
	cfg        Config
	engine     answerer
	machine    *h5p.Machine
	generator  *h5p.Generator
	contents   *h5p.ContentStore
	clearers   []Clearer
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all dependencies. machine, generator, contents
// and clearers are optional; missing pieces disable their endpoints'
// functionality but never panic.
func New(cfg Config, engine answerer, machine *h5p.Machine, generator *h5p.Generator,
	contents *h5p.ContentStore, clearers []Clearer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		machine:   machine,
		generator: generator,
		contents:  contents,
		clearers:  clearers,
		log:       log,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.AllowedOrigins
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/query", s.handleQuery)
		api.Post("/query/video", s.handleVideoQuery)
		api.Post("/h5p/generate", s.handleGenerate)
		api.Get("/h5p/types", s.handleContentTypes)
		api.Get("/h5p/content/{id}", s.handleGetContent)
		api.Post("/clear-cache", s.handleClearCache)
	})

	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs one line per request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// recoverer converts panics into the apologetic canned 500 body. Stack
// traces go to the log, never to the client.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.log.Error("panic serving request",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"))
				writeJSON(w, http.StatusInternalServerError, errorBody{
					Error: "Sorry, something went wrong on our end. Please try again in a moment.",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
