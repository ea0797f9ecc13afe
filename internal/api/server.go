// Package api serves the live canvas and its exports over HTTP.
package api

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/renderer"
)

// Exporter runs exports against the served canvas.
type Exporter interface {
	Export(ctx context.Context, req export.Request, onProgress export.ProgressFunc) (*export.Result, error)
}

// Canvas is the live canvas as seen by the API.
type Canvas interface {
	Snapshot() (*image.RGBA, error)
	Params() renderer.Params
	SetParams(p renderer.Params) error
}

// History stores export attempts. It may be nil.
type History interface {
	Record(ctx context.Context, e *history.Entry) error
	List(ctx context.Context, limit int) ([]*history.Entry, error)
}

type ServerConfig struct {
	Addr      string
	Exporter  Exporter
	Canvas    Canvas
	History   History
	Logger    *slog.Logger
	StartTime time.Time
	Version   string
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     NewRouter(cfg),
			ReadTimeout: 15 * time.Second,
			// Exports stream back after up to a minute of real-time capture.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
