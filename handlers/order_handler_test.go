package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/types/order"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"
)

type mockOrderCreator struct {
	result *services.CreateOrderResult
	err    error
}

func (m *mockOrderCreator) Create(ctx context.Context, clerkID string, req *services.CreateOrderRequest) (*services.CreateOrderResult, error) {
	return m.result, m.err
}

type mockPaymentVerifier struct {
	result *services.VerifyResult
	err    error
}

func (m *mockPaymentVerifier) Verify(ctx context.Context, clerkID string, orderID uuid.UUID, req *services.VerifyRequest) (*services.VerifyResult, error) {
	return m.result, m.err
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, "user_clerk_1")
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp["error"]
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	h := NewOrderHandler(&mockOrderCreator{}, &mockPaymentVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	h.CreateOrder(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "AUTH_REQUIRED", decodeError(t, rr)["code"])
}

func TestCreateOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	gymID := uuid.New()
	creator := &mockOrderCreator{
		result: &services.CreateOrderResult{
			Order: &order.Order{
				ID:         orderID,
				Type:       order.TypeEntry,
				GymID:      &gymID,
				TotalPaise: 39130,
				Status:     order.StatusCreated,
			},
			GatewayOrderID: "order_rzp123",
			Breakdown: pricing.Breakdown{
				GymPricePaise:    35000,
				PlatformFeePaise: 3500,
				GSTPaise:         630,
				TotalPaise:       39130,
				PlatformFeeBps:   1000,
				GSTRateBps:       1800,
			},
		},
	}
	h := NewOrderHandler(creator, &mockPaymentVerifier{})

	body := []byte(`{"type":"ENTRY","gym_id":"` + gymID.String() + `"}`)
	rr := httptest.NewRecorder()
	h.CreateOrder(rr, authedRequest(http.MethodPost, "/api/v1/orders", body))

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, orderID.String(), resp["order_id"])
	assert.Equal(t, "order_rzp123", resp["gateway_order_id"])
	assert.Equal(t, float64(39130), resp["amount_paise"])
	assert.Equal(t, "INR", resp["currency"])

	breakdown, ok := resp["breakdown"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3500), breakdown["platform_fee_paise"])
}

func TestCreateOrderMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        *apierror.Error
		wantStatus int
	}{
		{"paused gym", apierror.New("GYM_PAUSED", "Gym is not accepting check-ins", http.StatusConflict), http.StatusConflict},
		{"incomplete profile", apierror.New("PROFILE_INCOMPLETE", "Please complete your profile", http.StatusBadRequest), http.StatusBadRequest},
		{"gateway down", apierror.New("PAYMENT_GATEWAY_ERROR", "Payment gateway unavailable", http.StatusBadGateway), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewOrderHandler(&mockOrderCreator{err: tc.err}, &mockPaymentVerifier{})

			rr := httptest.NewRecorder()
			h.CreateOrder(rr, authedRequest(http.MethodPost, "/api/v1/orders", []byte(`{"type":"ENTRY"}`)))

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.err.Code, decodeError(t, rr)["code"])
		})
	}
}

func TestCreateOrderRejectsBadBody(t *testing.T) {
	h := NewOrderHandler(&mockOrderCreator{}, &mockPaymentVerifier{})

	rr := httptest.NewRecorder()
	h.CreateOrder(rr, authedRequest(http.MethodPost, "/api/v1/orders", []byte(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr)["code"])
}

func TestVerifyPaymentEntry(t *testing.T) {
	orderID := uuid.New()
	checkinID := uuid.New()
	verifier := &mockPaymentVerifier{
		result: &services.VerifyResult{Type: order.TypeEntry, CheckinID: &checkinID},
	}
	h := NewOrderHandler(&mockOrderCreator{}, verifier)

	body := []byte(`{"payment_id":"pay_1","signature":"sig"}`)
	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/verify", body)
	req = mux.SetURLVars(req, map[string]string{"orderId": orderID.String()})

	rr := httptest.NewRecorder()
	h.VerifyPayment(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(order.TypeEntry), resp["type"])
	assert.Equal(t, checkinID.String(), resp["checkin_id"])
}

func TestVerifyPaymentSubscription(t *testing.T) {
	orderID := uuid.New()
	expires := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	verifier := &mockPaymentVerifier{
		result: &services.VerifyResult{Type: order.TypeSubscription, ExpiresAt: &expires},
	}
	h := NewOrderHandler(&mockOrderCreator{}, verifier)

	body := []byte(`{"payment_id":"pay_1","signature":"sig"}`)
	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/verify", body)
	req = mux.SetURLVars(req, map[string]string{"orderId": orderID.String()})

	rr := httptest.NewRecorder()
	h.VerifyPayment(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(order.TypeSubscription), resp["type"])
	assert.NotEmpty(t, resp["expires_at"])
	assert.Nil(t, resp["checkin_id"])
}

func TestVerifyPaymentInvalidOrderID(t *testing.T) {
	h := NewOrderHandler(&mockOrderCreator{}, &mockPaymentVerifier{})

	req := authedRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/verify", []byte(`{}`))
	req = mux.SetURLVars(req, map[string]string{"orderId": "not-a-uuid"})

	rr := httptest.NewRecorder()
	h.VerifyPayment(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyPaymentInvalidSignature(t *testing.T) {
	orderID := uuid.New()
	verifier := &mockPaymentVerifier{
		err: apierror.New("INVALID_SIGNATURE", "Payment signature verification failed", http.StatusBadRequest),
	}
	h := NewOrderHandler(&mockOrderCreator{}, verifier)

	body := []byte(`{"payment_id":"pay_1","signature":"tampered"}`)
	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/verify", body)
	req = mux.SetURLVars(req, map[string]string{"orderId": orderID.String()})

	rr := httptest.NewRecorder()
	h.VerifyPayment(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_SIGNATURE", decodeError(t, rr)["code"])
}
