package accounts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// Handler exposes chart-of-accounts management over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.List)
	r.Get("/accounts/{id}", h.Show)
	r.Post("/accounts", h.Create)
	r.Post("/accounts/{id}/deactivate", h.Deactivate)
	r.Post("/accounts/{id}/reactivate", h.Reactivate)
	r.Post("/accounts/{id}/reparent", h.Reparent)
	r.Delete("/accounts/{id}", h.Delete)
}

type createAccountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Category string `json:"category"`
	ParentID *int64 `json:"parentId"`
	ActorID  int64  `json:"actorId" validate:"required"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "1"
	list, err := h.service.List(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("list accounts failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		Category: req.Category,
		ParentID: req.ParentID,
		ActorID:  req.ActorID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, (*Service).Deactivate)
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, (*Service).Reactivate)
}

func (h *Handler) toggleActive(w http.ResponseWriter, r *http.Request, op func(*Service, context.Context, int64, int64) error) {
	id, err := accountID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	actorID := actorFromQuery(r)
	if err := op(h.service, r.Context(), id, actorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) Reparent(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	var req struct {
		ParentID *int64 `json:"parentId"`
		ActorID  int64  `json:"actorId" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Reparent(r.Context(), id, req.ParentID, req.ActorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	if err := h.service.Delete(r.Context(), id, actorFromQuery(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func accountID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorFromQuery(r *http.Request) int64 {
	actor, _ := strconv.ParseInt(r.URL.Query().Get("actorId"), 10, 64)
	return actor
}
