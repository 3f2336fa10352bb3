package repairorders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/rbac"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Handler exposes repair order endpoints.
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

// MountRoutes registers repair order routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("repairs.view"))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require("repairs.edit"))
		r.Post("/", h.create)
		r.Patch("/{id}/costs", h.updateCosts)
		r.Post("/{id}/transition", h.transition)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListOrdersRequest{
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

	orders, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	records, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *Handler) updateCosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	var req UpdateCostsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	order, err := h.service.UpdateCosts(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.Transition(r.Context(), id, req, actor)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "repair order not found")
	case errors.As(err, &transitionErr):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", transitionErr.Error())
	case errors.Is(err, ErrPaymentPending):
		httpx.Problem(w, http.StatusConflict, "Payment Pending", err.Error())
	case errors.Is(err, ErrOrderClosed):
		httpx.Problem(w, http.StatusConflict, "Order Closed", err.Error())
	case errors.Is(err, shared.ErrVersionConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "order was modified concurrently, retry")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidPriority), errors.Is(err, ErrNegativeAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("repair orders handler", slog.String("path", r.URL.Path), slog.Any("error", err))
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
