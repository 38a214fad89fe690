package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"prisched/internal/job"
	"prisched/internal/logging"
	"prisched/internal/sched"
)

// maxBodyBytes caps the size of a posted process-definition file.
const maxBodyBytes = 1 << 20

// Handler serves simulations over HTTP. Every request gets its own
// dispatcher; nothing is shared between requests.
type Handler struct {
	cfg    sched.Config
	logger *slog.Logger
}

func NewHandler(cfg sched.Config, logger *slog.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logger}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.Health)
	r.Post("/simulate", h.Simulate)
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
}

// Simulate runs the posted process definitions. Query parameters:
// strategy=event|tick, verify=true to cross-check both strategies. Requests
// that run the tick strategy are refused when the batch's horizon exceeds
// Server.MaxTicks.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg
	cfg.EventLog = "" // no server-side files per request

	if s := r.URL.Query().Get("strategy"); s != "" {
		strategy, err := sched.ParseStrategy(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		cfg.Strategy = strategy
	}
	verify := false
	if v := r.URL.Query().Get("verify"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "verify must be a boolean"})
			return
		}
		verify = b
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				errorBody{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "read body: " + err.Error()})
		return
	}

	procs, err := job.Parse(bytes.NewReader(data))
	if err != nil {
		body := errorBody{Error: err.Error()}
		var le *job.LoadError
		if errors.As(err, &le) {
			body.Line = le.Line
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	if cfg.Strategy == sched.StrategyTick || verify {
		if horizon := job.Horizon(procs); horizon > cfg.Server.MaxTicks {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: fmt.Sprintf(
				"tick horizon %d exceeds the limit of %d; use the event strategy without verification", horizon, cfg.Server.MaxTicks)})
			return
		}
	}

	var res *sched.Result
	if verify {
		res, _, err = sched.CrossCheck(r.Context(), cfg, procs, h.logger)
	} else {
		res, err = sched.Simulate(r.Context(), cfg, procs, h.logger)
	}
	switch {
	case err == nil:
	case errors.Is(err, sched.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	default:
		h.logger.Error("simulation failed", logging.ErrAttr(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	h.logger.Info("simulation served",
		slog.Int("processes", len(res.Processes)),
		slog.String("strategy", string(res.Strategy)),
		slog.Bool("verified", verify))
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
