package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/logging"
	"github.com/Trailblaze-work/loopcast/internal/renderer"
)

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 64 << 10

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/frame.png", frameHandler(cfg))
	r.Get("/patterns", patternsHandler())
	r.Get("/params", getParamsHandler(cfg))
	r.Put("/params", putParamsHandler(cfg))
	r.Route("/exports", func(r chi.Router) {
		r.Get("/", listExportsHandler(cfg))
		r.Post("/", createExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Pattern: cfg.Canvas.Params().Pattern,
		})
	}
}

func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := cfg.Canvas.Snapshot()
		if errors.Is(err, renderer.ErrNoFrame) {
			WriteError(w, http.StatusServiceUnavailable, "canvas has not drawn yet", "NOT_READY")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read canvas", "INTERNAL_ERROR")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		png.Encode(w, img)
	}
}

func patternsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp PatternsResponse
		for _, p := range renderer.Patterns() {
			resp.Patterns = append(resp.Patterns, PatternResponse{Name: p.Name, Title: p.Title})
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getParamsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Canvas.Params())
	}
}

func putParamsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := cfg.Canvas.Params()
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&p); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid JSON body", "BAD_REQUEST")
			return
		}
		if err := cfg.Canvas.SetParams(p); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMS")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Canvas.Params())
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteJSON(w, http.StatusOK, ExportsResponse{Exports: []*history.Entry{}})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := cfg.History.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}
		if entries == nil {
			entries = []*history.Entry{}
		}
		WriteJSON(w, http.StatusOK, ExportsResponse{Exports: entries})
	}
}

// createExportHandler runs an export synchronously and returns the encoded
// bytes. The request context cancels the export if the client goes away.
func createExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := export.DefaultRequest()
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid JSON body", "BAD_REQUEST")
			return
		}
		req.Width = export.ClampSize(req.Width)
		req.Height = export.ClampSize(req.Height)

		entry := history.Start(req, cfg.Canvas.Params().Pattern)
		logger := logging.WithExportID(cfg.Logger, entry.ID)
		record := func() {
			if cfg.History == nil {
				return
			}
			if err := cfg.History.Record(context.WithoutCancel(r.Context()), entry); err != nil {
				logger.Warn("failed to record export", "error", err)
			}
		}

		res, err := cfg.Exporter.Export(r.Context(), req, nil)
		switch {
		case errors.Is(err, export.ErrBusy):
			WriteError(w, http.StatusConflict, err.Error(), "BUSY")
			return
		case errors.Is(err, export.ErrInvalidRequest):
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
			return
		}

		entry.Finish(res, err)
		record()
		if err != nil {
			logger.Error("export failed", "error", err)
			WriteError(w, http.StatusInternalServerError, err.Error(), "EXPORT_FAILED")
			return
		}

		w.Header().Set("Content-Type", res.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="loopcast-%s.%s"`, entry.ID[:8], export.ExtensionFor(res.MIMEType)))
		w.Header().Set("X-Export-ID", entry.ID)
		w.WriteHeader(http.StatusOK)
		w.Write(res.Data)
	}
}
