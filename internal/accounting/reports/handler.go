package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// Handler exposes the reporting engine over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.TrialBalance)
	r.Get("/reports/balance-sheet", h.BalanceSheet)
	r.Get("/reports/income-statement", h.IncomeStatement)
	r.Get("/reports/recapitulation", h.Recapitulation)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	periodID, ok := queryPeriod(w, r)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), periodID)
	if err != nil {
		h.logger.Error("trial balance failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if !tb.IsBalanced {
		h.logger.Error("trial balance out of balance",
			"period_id", periodID,
			"debit_normal", tb.TotalDebitNormal,
			"kredit_normal", tb.TotalKreditNormal)
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	periodID, ok := queryPeriod(w, r)
	if !ok {
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), periodID)
	if err != nil {
		h.logger.Error("balance sheet failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	periodID, ok := queryPeriod(w, r)
	if !ok {
		return
	}
	pl, err := h.service.IncomeStatement(r.Context(), periodID)
	if err != nil {
		h.logger.Error("income statement failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) Recapitulation(w http.ResponseWriter, r *http.Request) {
	periodID, ok := queryPeriod(w, r)
	if !ok {
		return
	}
	granularity := Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = GranularityDaily
	}
	if !granularity.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "granularity must be daily, monthly, or yearly")
		return
	}
	recap, err := h.service.Recapitulation(r.Context(), RecapQuery{
		PeriodID:      periodID,
		Granularity:   granularity,
		ReferenceType: r.URL.Query().Get("referenceType"),
	})
	if err != nil {
		h.logger.Error("recapitulation failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recap)
}

func queryPeriod(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("periodId")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid periodId")
		return 0, false
	}
	return id, true
}
