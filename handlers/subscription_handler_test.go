package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/types/subscription"
	"cruxPassAPI/services"
)

type mockSubscriptionSummarizer struct {
	summary *services.Summary
	err     error
	userID  uuid.UUID
}

func (m *mockSubscriptionSummarizer) Current(ctx context.Context, userID uuid.UUID) (*services.Summary, error) {
	m.userID = userID
	return m.summary, m.err
}

func TestGetSubscriptionRequiresAuth(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionSummarizer{}, &mockProfileEnsurer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil)
	rr := httptest.NewRecorder()
	h.GetSubscription(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "AUTH_REQUIRED", decodeError(t, rr)["code"])
}

func TestGetSubscriptionActive(t *testing.T) {
	sub := &subscription.Subscription{
		ID:        uuid.New(),
		Status:    subscription.StatusActive,
		ExpiresAt: time.Now().Add(10 * 24 * time.Hour),
	}
	summarizer := &mockSubscriptionSummarizer{
		summary: &services.Summary{
			IsActive:             true,
			Subscription:         sub,
			PurchasePricePaise:   22248,
			PurchasePriceDisplay: "₹222.48",
			Breakdown:            pricing.Compute(pricing.SubscriptionPricePaise, false),
			Benefit:              "Platform fee reduced from 10% to 5% on every gym visit",
		},
	}
	h := NewSubscriptionHandler(summarizer, &mockProfileEnsurer{})

	rr := httptest.NewRecorder()
	h.GetSubscription(rr, authedRequest(http.MethodGet, "/api/v1/subscriptions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, uuid.Nil, summarizer.userID, "summary should be keyed by the resolved profile id")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_active"])
	assert.Equal(t, float64(22248), resp["purchase_price_paise"])
	assert.NotNil(t, resp["subscription"])
	assert.NotEmpty(t, resp["benefit"])
}

func TestGetSubscriptionNone(t *testing.T) {
	summarizer := &mockSubscriptionSummarizer{
		summary: &services.Summary{
			IsActive:             false,
			PurchasePricePaise:   22248,
			PurchasePriceDisplay: "₹222.48",
			Breakdown:            pricing.Compute(pricing.SubscriptionPricePaise, false),
		},
	}
	h := NewSubscriptionHandler(summarizer, &mockProfileEnsurer{})

	rr := httptest.NewRecorder()
	h.GetSubscription(rr, authedRequest(http.MethodGet, "/api/v1/subscriptions", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_active"])
	assert.Nil(t, resp["subscription"])
}
