// Package httpapi exposes the scan pipeline over a small chi-routed HTTP
// trigger endpoint, for callers that would rather POST a batch of URLs
// than speak MCP.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/depfused/depfused/orchestrate"
)

// NewRouter builds the chi router: POST /scan triggers a batch scan,
// GET /health is a liveness probe.
func NewRouter(o *orchestrate.Orchestrator, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/scan", func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if len(req.Targets) == 0 {
			writeError(w, http.StatusBadRequest, errNoTargets)
			return
		}

		targets := make([]string, len(req.Targets))
		for i, t := range req.Targets {
			targets[i] = normalizeTarget(t)
		}

		results := o.ScanMultiple(r.Context(), targets)
		writeJSON(w, http.StatusOK, results)
	})

	return r
}

type scanRequest struct {
	Targets []string `json:"targets"`
}

var errNoTargets = httpError("scan: at least one target is required")

type httpError string

func (e httpError) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func normalizeTarget(t string) string {
	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
		return t
	}
	return "https://" + t
}
