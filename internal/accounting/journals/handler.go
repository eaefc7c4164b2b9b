package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokoprima/tokoprima/internal/observability"
	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// Handler exposes the journal engine over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.List)
	r.Get("/journals/{id}", h.Show)
	r.Post("/journals", h.Create)
	r.Post("/journals/{id}/reverse", h.Reverse)

	r.Post("/journals/drafts", h.CreateDraft)
	r.Put("/journals/drafts/{id}", h.UpdateDraft)
	r.Delete("/journals/drafts/{id}", h.DeleteDraft)
	r.Post("/journals/drafts/{id}/post", h.PostDraft)
}

type lineRequest struct {
	AccountID   int64  `json:"accountId" validate:"required"`
	Debit       int64  `json:"debit" validate:"gte=0"`
	Kredit      int64  `json:"kredit" validate:"gte=0"`
	Description string `json:"description"`
}

type entryRequest struct {
	PeriodID      int64         `json:"periodId"`
	Date          time.Time     `json:"date" validate:"required"`
	Description   string        `json:"description"`
	Reference     string        `json:"reference"`
	ReferenceType string        `json:"referenceType"`
	PostedBy      int64         `json:"postedBy" validate:"required"`
	Lines         []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{PostedOnly: r.URL.Query().Get("drafts") != "1"}
	if raw := r.URL.Query().Get("periodId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid periodId")
			return
		}
		filter.PeriodID = id
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list journals failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journals": entries})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.CreateEntry(r.Context(), PostingInput{
		PeriodID:      req.PeriodID,
		Date:          req.Date,
		Description:   req.Description,
		Reference:     req.Reference,
		ReferenceType: req.ReferenceType,
		PostedBy:      req.PostedBy,
		Lines:         toLineInputsFromRequest(req.Lines),
	})
	if err != nil {
		h.logger.Warn("journal rejected", "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.EntryPosted(entry.ReferenceType)
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	var req struct {
		PostedBy int64 `json:"postedBy" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.ReverseEntry(r.Context(), id, req.PostedBy)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.EntryPosted(entry.ReferenceType)
	httpx.JSON(w, http.StatusCreated, entry)
}

type draftRequest struct {
	PeriodID      int64         `json:"periodId"`
	Date          time.Time     `json:"date" validate:"required"`
	Description   string        `json:"description"`
	Reference     string        `json:"reference"`
	ReferenceType string        `json:"referenceType"`
	ActorID       int64         `json:"actorId" validate:"required"`
	Lines         []lineRequest `json:"lines" validate:"dive"`
}

func (req draftRequest) toInput() DraftInput {
	return DraftInput{
		PeriodID:      req.PeriodID,
		Date:          req.Date,
		Description:   req.Description,
		Reference:     req.Reference,
		ReferenceType: req.ReferenceType,
		ActorID:       req.ActorID,
		Lines:         toLineInputsFromRequest(req.Lines),
	}
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	draft, err := h.service.SaveDraft(r.Context(), req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, draft)
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	var req draftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateDraft(r.Context(), id, req.toInput()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actorId"), 10, 64)
	if err := h.service.DeleteDraft(r.Context(), id, actorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) PostDraft(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	var req struct {
		PostedBy int64 `json:"postedBy" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.PostDraft(r.Context(), id, req.PostedBy)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.EntryPosted(entry.ReferenceType)
	httpx.JSON(w, http.StatusOK, entry)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toLineInputsFromRequest(lines []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Kredit:      line.Kredit,
			Description: line.Description,
		})
	}
	return out
}
