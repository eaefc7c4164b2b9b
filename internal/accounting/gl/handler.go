package gl

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// Handler exposes the general ledger computation over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger/{accountId}", h.Show)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	q := Query{AccountID: accountID}
	if raw := r.URL.Query().Get("periodId"); raw != "" {
		if q.PeriodID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid periodId")
			return
		}
	}
	if q.From, err = parseDate(r.URL.Query().Get("from")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date, want YYYY-MM-DD")
		return
	}
	if q.To, err = parseDate(r.URL.Query().Get("to")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to date, want YYYY-MM-DD")
		return
	}

	ledger, err := h.service.ComputeLedger(r.Context(), q)
	if err != nil {
		h.logger.Warn("ledger computation failed", "account_id", accountID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
