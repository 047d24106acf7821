// Package api implements the HTTP surface of the order notifier: the order
// intake and status endpoints, the admin monitoring endpoints, and the shared
// chassis (routing, middleware, response envelopes).
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookbliss/internal/types"
)

// OrderRepo defines the data access contract for order operations. Mirrors
// the concrete db.OrderRepository methods used by this handler.
type OrderRepo interface {
	Create(ctx context.Context, order *types.Order) error
	GetByID(ctx context.Context, id string) (*types.Order, error)
	UpdateStatus(ctx context.Context, id string, status types.OrderStatus) error
	List(ctx context.Context, limit int) ([]*types.Order, error)
}

// Notifier is the scheduling surface the order handlers drive. Transition
// reacts to a status change: it restarts, finalizes, or stops the schedule
// according to the new status.
type Notifier interface {
	Transition(ctx context.Context, orderID string, newStatus types.OrderStatus, recipient string)
}

// CreateOrderRequest is the request body for POST /v1/orders.
type CreateOrderRequest struct {
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	TotalCents    int64  `json:"total_cents" validate:"min=0"`
}

// UpdateOrderStatusRequest is the request body for
// PATCH /v1/admin/orders/{orderID}/status.
type UpdateOrderStatusRequest struct {
	Status types.OrderStatus `json:"status" validate:"required"`
}

// OrderHandler manages order intake and status changes, driving the notifier
// as a side effect.
type OrderHandler struct {
	repo     OrderRepo
	notifier Notifier
	validate *validator.Validate
	clock    types.Clock
	logger   *slog.Logger
}

// NewOrderHandler creates a new OrderHandler with the provided dependencies.
// A nil clock defaults to the real clock.
func NewOrderHandler(repo OrderRepo, notifier Notifier, clock types.Clock, logger *slog.Logger) *OrderHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		repo:     repo,
		notifier: notifier,
		validate: validator.New(),
		clock:    clock,
		logger:   logger,
	}
}

// RegisterRoutes mounts order routes on the provided chi.Router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{orderID}", h.Get)
	})
}

// RegisterAdminRoutes mounts the status mutation route under the admin tree.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Patch("/orders/{orderID}/status", h.UpdateStatus)
}

// Create handles POST /v1/orders:
//  1. Decode and validate the request.
//  2. Persist a new order in status "pending".
//  3. Return 201 Created with the order.
//
// The notification schedule is not armed here; it starts when an admin moves
// the order to "confirmed", which also sends the confirmation email.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidEmail,
			"invalid order payload: "+err.Error(),
			err,
		))
		return
	}

	now := h.clock.Now()
	order := &types.Order{
		ID:            uuid.NewString(),
		CustomerEmail: req.CustomerEmail,
		Status:        types.StatusPending,
		TotalCents:    req.TotalCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.repo.Create(r.Context(), order); err != nil {
		Error(w, r, err)
		return
	}

	h.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("status", string(order.Status)),
	)
	JSON(w, r, http.StatusCreated, APIResponse{Data: order})
}

// Get handles GET /v1/orders/{orderID}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.repo.GetByID(r.Context(), orderID)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: order})
}

// List handles GET /v1/orders. The optional limit query parameter caps the
// result set (default 50).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidBody,
				"limit must be a positive integer",
				err,
			))
			return
		}
		limit = parsed
	}

	orders, err := h.repo.List(r.Context(), limit)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: orders})
}

// UpdateStatus handles PATCH /v1/admin/orders/{orderID}/status:
//  1. Decode and validate the new status against the known set.
//  2. Load the order; terminal orders reject further changes with 409.
//  3. Persist the new status.
//  4. Hand the change to the notifier, which restarts, finalizes, or stops
//     the schedule according to the new status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req UpdateOrderStatusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if !req.Status.Known() {
		Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidStatus,
			"unknown order status",
			nil,
			map[string]any{"status": string(req.Status)},
		))
		return
	}

	order, err := h.repo.GetByID(r.Context(), orderID)
	if err != nil {
		Error(w, r, err)
		return
	}
	if order.Status.Terminal() {
		Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeConflictTerminalOrder,
			"order is already in a terminal status",
			nil,
			map[string]any{"status": string(order.Status)},
		))
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		Error(w, r, err)
		return
	}

	h.notifier.Transition(r.Context(), orderID, req.Status, order.CustomerEmail)

	h.logger.Info("order status updated",
		slog.String("order_id", orderID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(req.Status)),
	)

	order.Status = req.Status
	JSON(w, r, http.StatusOK, APIResponse{Data: order})
}

