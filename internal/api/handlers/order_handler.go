package handlers

import (
	"net/http"

	"github.com/ertantorizkyf/promotion-service/internal/service"
)

// --- Request DTOs ---

type UpsertOrderItemRequest struct {
	MenuID   int64 `json:"menu_id"`
	Quantity int   `json:"quantity"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// --- Handler struct & constructor ---

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// --- Handlers ---

// UpsertItem handles POST /orders/item. Repeat adds of the same menu
// replace the quantity rather than increment it.
func (h *OrderHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpsertOrderItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.orders.UpsertItem(r.Context(), userID, req.MenuID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "order item saved", nil)
}

// RemoveItem handles DELETE /orders/item/{menuID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	menuID, err := pathID(r, "menuID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.orders.RemoveItem(r.Context(), userID, menuID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "order item removed", nil)
}

// GetCurrentDraft handles GET /orders/draft.
func (h *OrderHandler) GetCurrentDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	order, err := h.orders.GetCurrentDraftOrder(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "current draft order", order)
}

// GetHistories handles GET /orders/histories.
func (h *OrderHandler) GetHistories(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	orders, err := h.orders.GetOrderHistories(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "order histories", orders)
}

// SubmitDraft handles POST /orders/draft/submission.
func (h *OrderHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.orders.SubmitDraftOrder(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "order submitted", nil)
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.orders.UpdateOrderStatus(r.Context(), orderID, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "order status updated", nil)
}
