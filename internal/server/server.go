package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"covermosaic/internal/mosaic"
	"covermosaic/pkg/tile"
)

// Server exposes the mosaic generator over HTTP.
type Server struct {
	startTime time.Time
	version   string
}

// NewServer creates a new server instance.
func NewServer(version string) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
	}
}

// Router builds the API router with the standard middleware stack.
func (s *Server) Router(timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.GetHealth)
		r.Post("/mosaic", s.CreateMosaic)
	})
	return r
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  int    `json:"uptime"`
	Version string `json:"version"`
}

// GetHealth implements the health check endpoint.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Uptime:  int(time.Since(s.startTime).Seconds()),
		Version: s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("error encoding health response: %v", err)
	}
}

// MosaicRequest carries one generation request. Target and Tiles are
// server-local paths; everything else mirrors the CLI flags and is
// optional.
type MosaicRequest struct {
	Target string `json:"target"`
	Tiles  string `json:"tiles"`

	CellSize    int    `json:"cellSize,omitempty"`
	Enlarge     int    `json:"enlarge,omitempty"`
	NoReuse     bool   `json:"noReuse,omitempty"`
	MaxReuse    int    `json:"maxReuse,omitempty"`
	MinDistance *int   `json:"minDistance,omitempty"`
	Background  string `json:"background,omitempty"`
	BgThreshold *float64 `json:"bgThreshold,omitempty"`

	Diversity    float64 `json:"diversity,omitempty"`
	NoColorMatch bool    `json:"noColorMatch,omitempty"`
	Seed         int64   `json:"seed,omitempty"`

	Tint       string   `json:"tint,omitempty"`
	TintAlpha  *float64 `json:"tintAlpha,omitempty"`
	BlendMode  string   `json:"blendMode,omitempty"`
	RegionTint bool     `json:"regionTint,omitempty"`
	Overlay    float64  `json:"overlay,omitempty"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateMosaic implements the generation endpoint: it runs the full
// pipeline and streams the finished mosaic back as PNG.
func (s *Server) CreateMosaic(w http.ResponseWriter, r *http.Request) {
	var req MosaicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON in request body")
		return
	}
	if req.Target == "" || req.Tiles == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "target and tiles are required")
		return
	}

	cfg, err := s.buildConfig(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	canvas, res, err := mosaic.NewGenerator(cfg).Generate(req.Target, req.Tiles)
	if err != nil {
		s.handleGenerateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Mosaic-Grid", fmt.Sprintf("%dx%d", res.Cols, res.Rows))
	w.Header().Set("X-Mosaic-Tiles", fmt.Sprintf("%d", res.TilesLoaded))
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, canvas); err != nil {
		log.Printf("error streaming mosaic: %v", err)
	}
}

func (s *Server) buildConfig(req *MosaicRequest) (*mosaic.Config, error) {
	cfg := mosaic.DefaultConfig()

	if req.CellSize > 0 {
		cfg.CellSize = req.CellSize
	}
	if req.Enlarge > 0 {
		cfg.Enlarge = req.Enlarge
	}
	switch {
	case req.NoReuse:
		cfg.Reuse = mosaic.ReuseNone
	case req.MaxReuse > 0:
		cfg.Reuse = mosaic.ReuseMax
		cfg.MaxReuse = req.MaxReuse
	}
	if req.MinDistance != nil {
		cfg.MinDistance = *req.MinDistance
	}
	if req.BgThreshold != nil {
		cfg.BackgroundThreshold = *req.BgThreshold
	}
	if req.Background != "" && req.Background != "none" {
		if req.Background == "auto" {
			cfg.Background = mosaic.BackgroundAuto
		} else {
			c, err := tile.ParseColor(req.Background)
			if err != nil {
				return nil, err
			}
			cfg.Background = mosaic.BackgroundFixed
			cfg.BackgroundColor = c
		}
	}

	cfg.DiversityWeight = req.Diversity
	cfg.ColorMatch = !req.NoColorMatch
	cfg.Seed = req.Seed
	cfg.Overlay = req.Overlay

	if req.BlendMode != "" {
		mode, err := mosaic.ParseBlendMode(req.BlendMode)
		if err != nil {
			return nil, err
		}
		cfg.TintBlend = mode
		cfg.OverlayBlend = mode
	}
	if req.TintAlpha != nil {
		cfg.TintAlpha = *req.TintAlpha
	}
	switch {
	case req.RegionTint:
		cfg.Tint = mosaic.TintRegion
	case req.Tint != "":
		c, err := tile.ParseColor(req.Tint)
		if err != nil {
			return nil, err
		}
		cfg.Tint = mosaic.TintUniform
		cfg.TintColor = c
	}

	return cfg, cfg.Validate()
}

func (s *Server) handleGenerateError(w http.ResponseWriter, err error) {
	var insufficient *mosaic.InsufficientTilesError
	switch {
	case errors.As(err, &insufficient):
		s.writeError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_TILES", err.Error())
	case errors.Is(err, tile.ErrEmptyLibrary):
		s.writeError(w, http.StatusUnprocessableEntity, "EMPTY_LIBRARY", err.Error())
	case errors.Is(err, os.ErrNotExist):
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "GENERATION_FAILED", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("error encoding error response: %v", err)
	}
}
