package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type OrderCreator interface {
	Create(ctx context.Context, clerkID string, req *services.CreateOrderRequest) (*services.CreateOrderResult, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, clerkID string, orderID uuid.UUID, req *services.VerifyRequest) (*services.VerifyResult, error)
}

type OrderHandler struct {
	orders   OrderCreator
	payments PaymentVerifier
}

func NewOrderHandler(orders OrderCreator, payments PaymentVerifier) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// CreateOrder opens a payable order. The response carries everything the
// client checkout needs plus the frozen fee breakdown for display.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	var req services.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apierror.Validation("Invalid request body"))
		return
	}

	result, err := h.orders.Create(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id":         result.Order.ID,
		"gateway_order_id": result.GatewayOrderID,
		"amount_paise":     result.Order.TotalPaise,
		"currency":         "INR",
		"breakdown":        result.Breakdown,
	})
}

// VerifyPayment closes the synchronous half of the payment loop: the client
// posts the gateway receipt here right after checkout succeeds.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["orderId"])
	if err != nil {
		respondWithError(w, apierror.Validation("Invalid order id"))
		return
	}

	var req services.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apierror.Validation("Invalid request body"))
		return
	}

	result, err := h.payments.Verify(ctx, clerkID, orderID, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
