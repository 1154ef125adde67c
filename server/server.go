package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dekarrin/phrasegen/server/api"
	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/svc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is a running phrasegen HTTP server. Build one with New and start it
// with ServeForever.
type Server struct {
	router chi.Router
	db     dao.Store
}

// New creates a new Server from cfg, connecting to the configured
// persistence layer. Call Validate or FillDefaults on cfg beforehand as
// appropriate; New does not do either itself.
func New(cfg Config) (*Server, error) {
	store, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}

	backend := svc.Service{DB: store}

	a := api.API{
		Backend:     backend,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount(api.PathPrefix, a.Routes())

	return &Server{router: r, db: store}, nil
}

// ServeForever starts the server listening on addr:port and blocks until it
// exits with an error.
func (s *Server) ServeForever(addr string, port int) error {
	listenOn := fmt.Sprintf("%s:%d", addr, port)
	log.Printf("INFO  starting phrasegen server on %s", listenOn)

	srv := &http.Server{
		Addr:         listenOn,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return srv.ListenAndServe()
}

// Close shuts down the persistence layer backing the server.
func (s *Server) Close() error {
	return s.db.Close()
}

// Backend returns the service layer bound to this Server's persistence
// store, for use by callers that need direct programmatic access (such as
// bootstrapping an initial admin account) without going through HTTP.
func (s *Server) Backend() svc.Service {
	return svc.Service{DB: s.db}
}
