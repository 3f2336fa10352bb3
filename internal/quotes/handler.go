package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taller-erp/taller-erp/internal/ledger"
	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/rbac"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Handler exposes quote endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		rbac:      rbac,
	}
}

// MountRoutes registers quote routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("quotes.view"))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("quotes.edit"))
		r.Post("/", h.create)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/respond", h.respond)
		r.Patch("/{id}/validity", h.updateValidity)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	quote, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quote id must be numeric")
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "customer_id must be numeric")
			return
		}
		req.CustomerID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		if !status.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "unknown status "+v)
			return
		}
		req.Status = &status
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quotes, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       quotes,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quote id must be numeric")
		return
	}
	quote, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quote id must be numeric")
		return
	}
	var req RespondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	quote, err := h.service.Respond(r.Context(), id, req.Decision)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) updateValidity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quote id must be numeric")
		return
	}
	var req UpdateValidityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	quote, err := h.service.UpdateValidity(r.Context(), id, req.ValidityDays)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ledger.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quote not found")
	case errors.Is(err, ErrExpired):
		httpx.Problem(w, http.StatusConflict, "Quote Expired", err.Error())
	case errors.Is(err, ErrAlreadyFinalized), errors.Is(err, ErrNotSent), errors.Is(err, ErrNotDraft):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrEmptyQuote):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Empty Quote", err.Error())
	case errors.Is(err, shared.ErrVersionConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "quote was modified concurrently, retry")
	case errors.As(err, &validationErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	case errors.Is(err, ErrInvalidDecision), errors.Is(err, ErrInvalidDetailType), errors.Is(err, ErrInvalidValidity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("quotes handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
