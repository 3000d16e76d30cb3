// Package api serves rate lookups and reimbursement estimates over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ndjaka/mineral-tax/internal/api/metrics"
	"ndjaka/mineral-tax/internal/batch"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/dateutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/report"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Handler handles the estimate endpoints.
type Handler struct {
	logger    logging.Logger
	generator *report.Generator
	resolver  *taxrate.Resolver
	metrics   *metrics.Metrics
}

// New creates a Handler. m may be nil to disable metrics.
func New(generator *report.Generator, resolver *taxrate.Resolver, logger logging.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if resolver == nil {
		resolver = taxrate.NewResolver(nil)
	}
	if generator == nil {
		generator = report.NewGenerator(logger, taxrate.NewCalculator(resolver), nil)
	}
	return &Handler{
		logger:    logger,
		generator: generator,
		resolver:  resolver,
		metrics:   m,
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/rate", h.handleRate)
		r.Post("/reimbursements", h.handleReimbursements)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleRate resolves the rate for ?date=&activity=&fuel=.
func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawDate := q.Get("date")
	if rawDate == "" {
		h.badRequest(w, r, errors.New("date is required"))
		return
	}
	date, err := taxrate.ParseDate(rawDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	activity := q.Get("activity")
	res := h.resolver.Resolve(date, activity, q.Get("fuel"))

	_ = render.Render(w, r, &RateResponse{
		Date:         dateutils.ToISODate(date.UTC()),
		Activity:     activity,
		FuelType:     res.Fuel.String(),
		Era:          res.Era.String(),
		RatePerLiter: currencyutils.FormatRate(res.RatePerLiter),
		StandardRate: res.Standard,
		RateTable:    h.resolver.Table().Version(),
	})
}

// handleReimbursements computes one line per posted entry plus the total.
func (h *Handler) handleReimbursements(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	req := &ReimbursementRequest{}
	if err := render.Bind(r, req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rep, err := h.generator.Build(req.FuelEntries())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build reimbursement report",
			logging.F(logging.FieldRequestID, middleware.GetReqID(r.Context())))
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	for _, line := range rep.Lines {
		amount, _ := line.Amount.Float64()
		h.metrics.IncrementCalculation(line.Era, batch.SectorKey(line), amount)
	}

	_ = render.Render(w, r, NewReimbursementResponse(rep))
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("Rejected request",
		logging.F(logging.FieldPath, r.URL.Path),
		logging.F(logging.FieldRequestID, middleware.GetReqID(r.Context())),
		logging.F(logging.FieldError, err.Error()))
	_ = render.Render(w, r, ErrInvalidRequest(err))
}

// requestLogger logs every request and records its duration.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)
		h.metrics.ObserveRequest(route, strconv.Itoa(status), elapsed)

		h.logger.Info("HTTP request",
			logging.F(logging.FieldMethod, r.Method),
			logging.F(logging.FieldPath, r.URL.Path),
			logging.F(logging.FieldHTTPStatus, status),
			logging.F(logging.FieldDuration, elapsed.Milliseconds()),
			logging.F(logging.FieldRemoteAddr, r.RemoteAddr),
			logging.F(logging.FieldRequestID, middleware.GetReqID(r.Context())))
	})
}
