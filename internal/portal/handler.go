package portal

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/taller-erp/taller-erp/internal/identity"
	"github.com/taller-erp/taller-erp/internal/ledger"
	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/internal/rbac"
	"github.com/taller-erp/taller-erp/internal/repairorders"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Handler exposes the public, token-gated portal surface. Reads need only a
// valid QR token; the create actions additionally require the caller to hold
// an operational capability.
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

// MountRoutes registers portal routes on the provided router. The surface is
// public, so it carries its own tighter rate limit.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{token}", func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Get("/", h.view)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require("repairs.edit"))
			r.Post("/orders", h.createOrder)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require("quotes.edit"))
			r.Post("/quotes", h.createQuote)
		})
	})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !identity.TokenPattern.MatchString(token) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown portal token")
		return
	}
	view, err := h.service.View(r.Context(), token)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req repairorders.CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	// The owning customer comes from the token; the placeholder only
	// satisfies struct validation and is overwritten by the service.
	req.CustomerID = 1
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	order, err := h.service.CreateOrder(r.Context(), token, req, actor)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req quotes.CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	req.CustomerID = 1 // overwritten by the service from the token
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	quote, err := h.service.CreateQuote(r.Context(), token, req, actor)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ledger.ValidationError
	switch {
	case errors.Is(err, ErrTokenNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown portal token")
	case errors.Is(err, shared.ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing capability for this action")
	case errors.As(err, &validationErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	default:
		h.logger.Error("portal handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
