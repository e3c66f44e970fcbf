package handle

import (
	_ "embed"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed index.html
var indexHTML []byte

type HealthResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	GeminiConfigured bool   `json:"gemini_configured"`
	Deployment       string `json:"deployment"`
}

type TestGeminiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

type TestGeminiError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (h *Handle) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

// Health reports liveness only; it never calls the inference service.
func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Message:          runningMessage(h.cfg.Deployment),
		GeminiConfigured: h.cfg.GeminiAPIKey != "",
		Deployment:       h.cfg.Deployment,
	})
}

func runningMessage(deployment string) string {
	deployment = strings.TrimSpace(deployment)
	if deployment == "" {
		return "Backend server is running"
	}
	return "Backend server is running on " + cases.Title(language.English).String(deployment)
}

func (h *Handle) TestGemini(w http.ResponseWriter, r *http.Request) {
	text, err := h.an.Ping(r.Context())
	if err != nil {
		h.log.Warn("gemini test failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, TestGeminiError{
			Status:  "error",
			Message: "Gemini API test failed",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, TestGeminiResponse{
		Status:   "success",
		Message:  "Gemini API test successful",
		Response: text,
	})
}
