// Package app wires the housegate runtime and HTTP lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sundayfest/housegate/internal/api/rest"
	"github.com/sundayfest/housegate/internal/photostore"
	"github.com/sundayfest/housegate/internal/platform/config"
	"github.com/sundayfest/housegate/internal/redemption"
	"github.com/sundayfest/housegate/internal/registration"
	"github.com/sundayfest/housegate/internal/stats"
	"github.com/sundayfest/housegate/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

type serverEnv struct {
	DBPath           string `env:"HOUSEGATE_DB_PATH"`
	PhotoDir         string `env:"HOUSEGATE_PHOTO_DIR"`
	PhotoBaseURL     string `env:"HOUSEGATE_PHOTO_BASE_URL" envDefault:"/photos"`
	RequireRegistrar bool   `env:"HOUSEGATE_REQUIRE_REGISTRAR"`
	MinAge           int    `env:"HOUSEGATE_MIN_AGE"`
	MaxAge           int    `env:"HOUSEGATE_MAX_AGE"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "housegate.db")
	}
	return cfg
}

// Server hosts the housegate JSON API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
}

// New creates a configured server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := sqlite.Open(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("open registration store: %w", err)
	}

	registrationOpts := []registration.Option{}
	if strings.TrimSpace(env.PhotoDir) != "" {
		registrationOpts = append(registrationOpts, registration.WithPhotoStore(photostore.NewDir(env.PhotoDir, env.PhotoBaseURL)))
	}
	registrations := registration.NewService(store, store, registration.Config{
		RequireRegistrar: env.RequireRegistrar,
		MinAge:           env.MinAge,
		MaxAge:           env.MaxAge,
	}, registrationOpts...)
	redemptions := redemption.NewService(store, store)
	statistics := stats.NewService(store)

	mux := http.NewServeMux()
	rest.NewHandler(registrations, redemptions, statistics, store).Routes(mux)
	if strings.TrimSpace(env.PhotoDir) != "" {
		prefix := strings.TrimRight(env.PhotoBaseURL, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(env.PhotoDir))))
	}

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("server is nil")
	}
	defer func() {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()
	log.Printf("listening on %s", s.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	<-serveErr
	return nil
}

// Close releases the listener and storage without serving.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
