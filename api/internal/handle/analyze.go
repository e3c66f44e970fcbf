package handle

import (
	"net/http"

	"go.uber.org/zap"

	"mcq-solver/api/internal/solver"
)

type AnalyzeResponse struct {
	Answer string `json:"answer"`
}

func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)

	req, err := solver.DecodeRequest(r.Body)
	if err != nil {
		h.log.Info("analyze: rejected request", zap.Error(err))
		writeError(w, err)
		return
	}

	answer, err := h.an.Analyze(r.Context(), req.Image)
	if err != nil {
		h.log.Error("analyze failed",
			zap.String("kind", solver.KindOf(err).String()),
			zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{Answer: answer})
}
