package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"texttransform/app/usecase"
	"texttransform/internal/domain/entity"
	"texttransform/internal/infrastructure/metrics"
)

const (
	msgMissingBody  = "Missing inputText in request body"
	msgMissingParam = "Missing inputText parameter"
	msgInternal     = "An internal server error occurred"
)

type TextTransformHandler struct {
	transformer usecase.TextTransformUsecase
	logger      *slog.Logger

	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

// NewTextTransformHandler registers its HTTP collectors on reg.
func NewTextTransformHandler(
	transformer usecase.TextTransformUsecase,
	logger *slog.Logger,
	reg prometheus.Registerer,
) *TextTransformHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqCount, errCount)

	return &TextTransformHandler{
		transformer: transformer,
		logger:      logger,
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

func (h *TextTransformHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRecover turns a panic in next into the generic 500 response.
func (h *TextTransformHandler) withRecover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.IncError("transport", "panic")
				metrics.IncTransformRequest(r.Method, "error")
				loggerFromContext(r.Context(), h.logger).Error("panic in handler", "method", r.Method, "panic", fmt.Sprint(rec))
				writeError(w, http.StatusInternalServerError, msgInternal)
			}
		}()
		next(w, r)
	}
}

func (h *TextTransformHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/chat", h.withMetrics(h.withRecover(h.handlePost))).Methods(http.MethodPost)
	r.HandleFunc("/api/chat", h.withMetrics(h.withRecover(h.handleGet))).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, entity.GenerationResult{Error: msg})
}

// POST /api/chat
func (h *TextTransformHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r.Context(), h.logger)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, r, fmt.Errorf("read request body: %w", err))
		return
	}

	inputText, err := inputTextFromBody(raw)
	if err != nil {
		if errors.Is(err, entity.ErrMissingInput) {
			metrics.IncTransformRequest(r.Method, "invalid")
			logger.Info("rejected request", "reason", err.Error())
			writeError(w, http.StatusBadRequest, msgMissingBody)
			return
		}
		h.fail(w, r, err)
		return
	}

	h.transform(w, r, inputText)
}

// GET /api/chat?inputText=...
func (h *TextTransformHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	inputText := r.URL.Query().Get("inputText")
	if inputText == "" {
		metrics.IncTransformRequest(r.Method, "invalid")
		loggerFromContext(r.Context(), h.logger).Info("rejected request", "reason", "missing inputText parameter")
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}

	h.transform(w, r, inputText)
}

func (h *TextTransformHandler) transform(w http.ResponseWriter, r *http.Request, inputText string) {
	res, err := h.transformer.Transform(r.Context(), entity.GenerationRequest{InputText: inputText})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.IncTransformRequest(r.Method, "success")
	writeJSON(w, http.StatusOK, res)
}

// fail logs the cause and answers with the generic message only.
func (h *TextTransformHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	metrics.IncTransformRequest(r.Method, "error")

	var genErr *entity.GenerationError
	if errors.As(err, &genErr) {
		loggerFromContext(r.Context(), h.logger).Error("text generation failed", "method", r.Method, "model", genErr.Model, "err", err)
	} else {
		metrics.IncError("transport", "unexpected")
		loggerFromContext(r.Context(), h.logger).Error("unexpected error", "method", r.Method, "err", err)
	}
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// inputTextFromBody returns ErrMissingInput when the body carries no usable
// inputText. Malformed JSON is returned as a plain decode error.
func inputTextFromBody(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("empty body: %w", entity.ErrMissingInput)
	}

	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode request body: %w", err)
	}

	obj, ok := body.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("body is not an object: %w", entity.ErrMissingInput)
	}
	text, ok := obj["inputText"].(string)
	if !ok || text == "" {
		return "", fmt.Errorf("inputText absent, empty or not a string: %w", entity.ErrMissingInput)
	}
	return text, nil
}

// GET /api/v1/health
func (h *TextTransformHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
