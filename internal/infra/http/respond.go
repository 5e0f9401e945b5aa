package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/metrics"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// badRequest is a client error that is not tied to a domain type.
type badRequest struct {
	field string
	msg   string
}

func (e *badRequest) Error() string { return e.field + ": " + e.msg }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unexpected is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		cv *catalog.ValidationError
		iv *indent.ValidationError
		br *badRequest
	)
	switch {
	case errors.As(err, &cv):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: cv.Msg, Field: cv.Field})
	case errors.As(err, &iv):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: iv.Msg, Field: iv.Field})
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: br.msg, Field: br.field})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "item not found"})
	case errors.Is(err, indent.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "request not found"})
	case errors.Is(err, indent.ErrNotPending):
		writeJSON(w, http.StatusConflict, errorBody{Error: "request is no longer pending"})
	case errors.Is(err, cart.ErrNotConfirmed):
		writeJSON(w, http.StatusPreconditionRequired, errorBody{Error: "add confirm=true to proceed"})
	case errors.Is(err, export.ErrNothingToExport):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "nothing to export"})
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequest{field: "body", msg: "invalid JSON: " + err.Error()}
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &badRequest{field: "id", msg: "must be a positive integer"}
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &badRequest{field: key, msg: "must be an integer"}
	}
	return n, nil
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument counts and times a route under its pattern.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
