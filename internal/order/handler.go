package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/shop-api/internal/httputil"
	"github.com/redmonkez12/shop-api/internal/logging"
)

// Handler contains HTTP handlers for the order endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// CreateOrderRequest represents the order creation request body
type CreateOrderRequest struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}

// UpdateOrderRequest represents the order update request body.
// Omitted fields are left unchanged.
type UpdateOrderRequest struct {
	ProductName *string `json:"product_name,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Create handles order creation
// @Summary      Create order
// @Description  Create a new order for the user
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        request body CreateOrderRequest true "Order details"
// @Success      201 {object} Order
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID}/orders [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		logger.Warn("invalid user id in path", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create order request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.ProductName == "" {
		httputil.RespondErrorWithCode(w, "product name is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		httputil.RespondErrorWithCode(w, "quantity must be greater than zero", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.PriceCents < 0 {
		httputil.RespondErrorWithCode(w, "price must not be negative", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": userID})

	newOrder, err := h.repo.Create(r.Context(), userID, req.ProductName, req.Quantity, req.PriceCents)
	if err != nil {
		if errors.Is(err, ErrUserMissing) {
			logger.Warn("order creation failed: user not found")
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("order creation failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create order", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("order created", "order_id", newOrder.ID)

	httputil.RespondJSON(w, newOrder, http.StatusCreated)
}

// List handles listing a user's orders
// @Summary      List orders
// @Description  List all orders of the user, newest first
// @Tags         orders
// @Produce      json
// @Param        userID path string true "User ID"
// @Success      200 {array} Order
// @Failure      400 {object} ErrorResponse "Invalid user id"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID}/orders [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		logger.Warn("invalid user id in path", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	orders, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("order listing failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list orders", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, orders, http.StatusOK)
}

// Get handles retrieving a single order
// @Summary      Get order
// @Description  Retrieve one of the user's orders
// @Tags         orders
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        orderID path string true "Order ID"
// @Success      200 {object} Order
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "Order not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID}/orders/{orderID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, orderID, ok := h.parseIDs(w, r, logger)
	if !ok {
		return
	}

	existingOrder, err := h.repo.GetByID(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "order not found", httputil.CodeOrderNotFound, http.StatusNotFound)
			return
		}
		logger.Error("order lookup failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get order", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, existingOrder, http.StatusOK)
}

// Update handles order updates
// @Summary      Update order
// @Description  Change fields of one of the user's orders. Omitted fields are left unchanged.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        orderID path string true "Order ID"
// @Param        request body UpdateOrderRequest true "Fields to update"
// @Success      200 {object} Order
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      404 {object} ErrorResponse "Order not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID}/orders/{orderID} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, orderID, ok := h.parseIDs(w, r, logger)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update order request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.ProductName != nil && *req.ProductName == "" {
		httputil.RespondErrorWithCode(w, "product name must not be empty", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		httputil.RespondErrorWithCode(w, "quantity must be greater than zero", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		httputil.RespondErrorWithCode(w, "price must not be negative", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Status != nil && !ValidStatus(*req.Status) {
		httputil.RespondErrorWithCode(w, "invalid order status", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": userID, "order_id": orderID})

	updatedOrder, err := h.repo.Update(r.Context(), userID, orderID, UpdateParams{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		PriceCents:  req.PriceCents,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("order update failed: order not found")
			httputil.RespondErrorWithCode(w, "order not found", httputil.CodeOrderNotFound, http.StatusNotFound)
			return
		}
		logger.Error("order update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update order", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("order updated")

	httputil.RespondJSON(w, updatedOrder, http.StatusOK)
}

// Delete handles order deletion
// @Summary      Delete order
// @Description  Remove one of the user's orders
// @Tags         orders
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        orderID path string true "Order ID"
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "Order not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID}/orders/{orderID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, orderID, ok := h.parseIDs(w, r, logger)
	if !ok {
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": userID, "order_id": orderID})

	if err := h.repo.Delete(r.Context(), userID, orderID); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("order deletion failed: order not found")
			httputil.RespondErrorWithCode(w, "order not found", httputil.CodeOrderNotFound, http.StatusNotFound)
			return
		}
		logger.Error("order deletion failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete order", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("order deleted")

	w.WriteHeader(http.StatusNoContent)
}

// parseIDs extracts and validates the user and order IDs from the URL
func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request, logger *logging.Logger) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		logger.Warn("invalid user id in path", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		logger.Warn("invalid order id in path", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid order id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, orderID, true
}
