package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/prime-compute-service/internal/compute"
	"github.com/kjstillabower/prime-compute-service/internal/lifecycle"
	"github.com/kjstillabower/prime-compute-service/internal/observability"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	state   *lifecycle.State
	version string
	logger  *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(state *lifecycle.State, version string, logger *zap.Logger) *Handler {
	return &Handler{
		state:   state,
		version: version,
		logger:  logger,
	}
}

// GetHealth handles GET /healthz. Liveness: 200 unless the process is
// draining after a termination signal.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if h.state.IsShuttingDown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetReady handles GET /readyz. Readiness: 200 only when startup has
// completed and no shutdown is in progress.
func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	if !h.state.IsReady() || h.state.IsShuttingDown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion handles GET /version.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// computeRequest decodes the /compute body. N stays raw so a missing field
// can be told apart from a value of the wrong type.
type computeRequest struct {
	N json.RawMessage `json:"n"`
}

type computeResponse struct {
	N              int     `json:"n"`
	PrimesCount    int     `json:"primes_count"`
	LatencySeconds float64 `json:"latency_seconds"`
}

// PostCompute handles POST /compute. Validation order: missing/unparseable
// body or absent field, then type, then range. The count runs synchronously
// on the request goroutine; n is capped so the worst case stays bounded.
func (h *Handler) PostCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.N) == 0 {
		observability.RecordCompute("invalid_input", 0)
		writeError(w, http.StatusBadRequest, "missing 'n' parameter")
		return
	}

	// Strict typed decode; no coercion from strings or fractional numbers.
	// Unmarshal treats a JSON null as a no-op on an int target, so reject it
	// here rather than let it fall through as zero.
	var n int
	if string(req.N) == "null" {
		observability.RecordCompute("invalid_input", 0)
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}
	if err := json.Unmarshal(req.N, &n); err != nil {
		observability.RecordCompute("invalid_input", 0)
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}

	if n < 0 || n > compute.MaxN {
		observability.RecordCompute("invalid_input", 0)
		writeError(w, http.StatusBadRequest, "n must be between 0 and 100000")
		return
	}

	result, elapsed, err := h.countPrimes(n)
	if err != nil {
		observability.RecordCompute("error", 0)
		h.requestLogger(r).Error("compute failed", zap.Int("n", n), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	seconds := elapsed.Seconds()
	observability.RecordCompute("success", seconds)
	h.requestLogger(r).Info("computed primes",
		zap.Int("n", n),
		zap.Int("primes_count", result),
		zap.String("latency", fmt.Sprintf("%.4fs", seconds)))

	writeJSON(w, http.StatusOK, computeResponse{
		N:              n,
		PrimesCount:    result,
		LatencySeconds: round4(seconds),
	})
}

// countPrimes times the counting loop only, converting any panic during the
// computation into an error so the handler can answer 500 and keep serving.
func (h *Handler) countPrimes(n int) (result int, elapsed time.Duration, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("compute panic: %v", rec)
		}
	}()
	start := time.Now()
	result = compute.CountPrimes(n)
	elapsed = time.Since(start)
	return result, elapsed, nil
}

// requestLogger returns the correlation-scoped logger when middleware has
// attached one, falling back to the handler's logger.
func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	return h.logger
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a flat {"error": message} body. Client input errors are
// never logged; the status code is the whole story.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
