package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokoprima/tokoprima/internal/close"
	"github.com/tokoprima/tokoprima/internal/observability"
	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// Handler exposes period closing over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *close.Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *close.Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/periods/{id}/pre-close", h.ValidatePreClose)
	r.Post("/periods/{id}/close", h.ClosePeriod)
	r.Get("/periods/{id}/closing-record", h.ClosingRecord)
}

func (h *Handler) ValidatePreClose(w http.ResponseWriter, r *http.Request) {
	periodID, err := pathPeriodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	result, err := h.service.ValidatePreClose(r.Context(), periodID)
	if err != nil {
		h.logger.Error("pre-close validation failed", "period_id", periodID, "error", err)
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type closeRequest struct {
	SuccessorID int64 `json:"successorPeriodId" validate:"required"`
	ActorID     int64 `json:"actorId" validate:"required"`
}

func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := pathPeriodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	var req closeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.ClosePeriod(r.Context(), close.CloseInput{
		PeriodID:    periodID,
		SuccessorID: req.SuccessorID,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.logger.Warn("period close rejected", "period_id", periodID, "error", err)
		respondError(w, err)
		return
	}
	h.metrics.PeriodClosed()
	h.logger.Info("period closed",
		"period_id", record.PeriodID,
		"successor_period_id", record.SuccessorID,
		"net_income", record.NetIncome)
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) ClosingRecord(w http.ResponseWriter, r *http.Request) {
	periodID, err := pathPeriodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	record, err := h.service.GetRecord(r.Context(), periodID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func pathPeriodID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
