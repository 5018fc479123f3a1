// Package api serves the lookup services over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tbckr/asnlook/internal/refresh"
	"github.com/tbckr/asnlook/internal/services"
	"github.com/tbckr/asnlook/internal/snapshot"
)

// Readiness reports the active snapshot, if any.
type Readiness interface {
	Ready() bool
	Snapshot() *snapshot.Snapshot
}

// StatusSource reports the outcome of recent refresh cycles.
type StatusSource interface {
	Status() refresh.Status
}

// Trigger queues an on-demand refresh. It reports false when a refresh is
// already queued.
type Trigger interface {
	Trigger() bool
}

// Config is the configuration structure for the handler returned by
// NewHandler.
type Config struct {
	IP  services.Service
	ASN services.Service

	Readiness Readiness
	Status    StatusSource
	Trigger   Trigger

	// Gatherer backs GET /metrics. When nil the endpoint is not mounted.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Input string `json:"input,omitempty"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Ready    bool            `json:"ready"`
	Snapshot *snapshot.Stats `json:"snapshot,omitempty"`
	Refresh  refresh.Status  `json:"refresh"`
}

// RefreshResponse is the body of POST /v1/refresh.
type RefreshResponse struct {
	Queued bool `json:"queued"`
}

type handler struct {
	ip        services.Service
	asn       services.Service
	readiness Readiness
	status    StatusSource
	trigger   Trigger
	logger    *slog.Logger
}

// NewHandler returns the HTTP handler of the query API. c must not be nil.
func NewHandler(c *Config) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{
		ip:        c.IP,
		asn:       c.ASN,
		readiness: c.Readiness,
		status:    c.Status,
		trigger:   c.Trigger,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", h.healthz)
	if c.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ip/{ip}", h.lookup(h.ip, "ip"))
		r.Get("/asn/{asn}", h.lookup(h.asn, "asn"))
		r.Get("/status", h.getStatus)
		r.Post("/refresh", h.postRefresh)
	})

	return r
}

func (h *handler) lookup(svc services.Service, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := chi.URLParam(r, param)
		res, err := svc.Run(r.Context(), input)
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error(), input)
			return
		case errors.Is(err, services.ErrNoSnapshot):
			writeError(w, r, http.StatusServiceUnavailable, err.Error(), input)
			return
		case err != nil:
			h.logger.Error("lookup failed", "service", svc.Name(), "input", input, "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error", input)
			return
		case res.IsEmpty():
			writeError(w, r, http.StatusNotFound, "no match", input)
			return
		}
		render.JSON(w, r, res)
	}
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Ready: h.readiness.Ready()}
	if snap := h.readiness.Snapshot(); snap != nil {
		stats := snap.Stats()
		resp.Snapshot = &stats
	}
	if h.status != nil {
		resp.Refresh = h.status.Status()
	}
	render.JSON(w, r, resp)
}

func (h *handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		writeError(w, r, http.StatusNotImplemented, "refresh is not available", "")
		return
	}
	queued := h.trigger.Trigger()
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, RefreshResponse{Queued: queued})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready() {
		render.Status(r, http.StatusServiceUnavailable)
		render.PlainText(w, r, "no snapshot\n")
		return
	}
	render.PlainText(w, r, "ok\n")
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg, input string) {
	render.Status(r, code)
	render.JSON(w, r, ErrorResponse{Error: msg, Input: input})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
