package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mcq-solver/api/internal/config"
	"mcq-solver/api/internal/solver"
)

// Analyzer is the part of solver.Solver the handlers depend on.
type Analyzer interface {
	Analyze(ctx context.Context, dataURI string) (string, error)
	Ping(ctx context.Context) (string, error)
}

type Handle struct {
	an  Analyzer
	cfg *config.Config
	log *zap.Logger
}

func New(an Analyzer, cfg *config.Config, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{an: an, cfg: cfg, log: log}
}

func (h *Handle) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/test-gemini", h.TestGemini)
	r.Post("/analyze", h.Analyze)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the pipeline error kinds to HTTP status codes. Only
// validation failures are client errors.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if solver.KindOf(err) == solver.KindValidation {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
