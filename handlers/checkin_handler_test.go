package handlers

import (
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
	"cruxPassAPI/internal/types/checkin"
	"cruxPassAPI/services"
)

type mockCheckinProvider struct {
	view    *services.CheckinView
	err     error
	confirm *services.ConfirmRequest
}

func (m *mockCheckinProvider) Get(ctx context.Context, clerkID string, checkinID uuid.UUID) (*services.CheckinView, error) {
	return m.view, m.err
}

func (m *mockCheckinProvider) Cancel(ctx context.Context, clerkID string, checkinID uuid.UUID) (*services.CheckinView, error) {
	return m.view, m.err
}

func (m *mockCheckinProvider) Confirm(ctx context.Context, clerkID string, checkinID uuid.UUID, req *services.ConfirmRequest) (*services.CheckinView, error) {
	m.confirm = req
	return m.view, m.err
}

func checkinRequest(method, action string, checkinID uuid.UUID, body []byte) *http.Request {
	target := "/api/v1/checkins/" + checkinID.String()
	if action != "" {
		target += "/" + action
	}
	req := authedRequest(method, target, body)
	return mux.SetURLVars(req, map[string]string{"checkinId": checkinID.String()})
}

func TestGetCheckin(t *testing.T) {
	checkinID := uuid.New()
	provider := &mockCheckinProvider{
		view: &services.CheckinView{
			ID:         checkinID,
			Status:     checkin.StatusPending,
			ExpiresAt:  time.Now().Add(60 * time.Second),
			GymName:    "Boulder Bros Indiranagar",
			MemberName: "Asha",
		},
	}
	h := NewCheckinHandler(provider)

	rr := httptest.NewRecorder()
	h.GetCheckin(rr, checkinRequest(http.MethodGet, "", checkinID, nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var view services.CheckinView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, checkinID, view.ID)
	assert.Equal(t, checkin.StatusPending, view.Status)
	assert.Equal(t, "Boulder Bros Indiranagar", view.GymName)
}

func TestGetCheckinForbiddenForStranger(t *testing.T) {
	provider := &mockCheckinProvider{err: apierror.Forbidden("You do not have access to this check-in")}
	h := NewCheckinHandler(provider)

	rr := httptest.NewRecorder()
	h.GetCheckin(rr, checkinRequest(http.MethodGet, "", uuid.New(), nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rr)["code"])
}

func TestCancelCheckin(t *testing.T) {
	checkinID := uuid.New()
	provider := &mockCheckinProvider{
		view: &services.CheckinView{ID: checkinID, Status: checkin.StatusCancelled},
	}
	h := NewCheckinHandler(provider)

	rr := httptest.NewRecorder()
	h.CancelCheckin(rr, checkinRequest(http.MethodPost, "", checkinID, nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestCancelResolvedCheckinConflicts(t *testing.T) {
	provider := &mockCheckinProvider{
		err: apierror.New("CHECKIN_NOT_PENDING", "Check-in has already been resolved", http.StatusConflict),
	}
	h := NewCheckinHandler(provider)

	rr := httptest.NewRecorder()
	h.CancelCheckin(rr, checkinRequest(http.MethodPost, "", uuid.New(), nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CHECKIN_NOT_PENDING", decodeError(t, rr)["code"])
}

func TestConfirmCheckinApprove(t *testing.T) {
	checkinID := uuid.New()
	provider := &mockCheckinProvider{
		view: &services.CheckinView{ID: checkinID, Status: checkin.StatusApproved},
	}
	h := NewCheckinHandler(provider)

	body := []byte(`{"action":"APPROVE"}`)
	rr := httptest.NewRecorder()
	h.ConfirmCheckin(rr, checkinRequest(http.MethodPost, "confirm", checkinID, body))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, provider.confirm)
	assert.Equal(t, "APPROVE", provider.confirm.Action)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, string(checkin.StatusApproved), resp["status"])
}

func TestConfirmCheckinRejectCarriesReason(t *testing.T) {
	checkinID := uuid.New()
	provider := &mockCheckinProvider{
		view: &services.CheckinView{ID: checkinID, Status: checkin.StatusRejected},
	}
	h := NewCheckinHandler(provider)

	body := []byte(`{"action":"REJECT","reject_reason":"Photo does not match"}`)
	rr := httptest.NewRecorder()
	h.ConfirmCheckin(rr, checkinRequest(http.MethodPost, "confirm", checkinID, body))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, provider.confirm)
	assert.Equal(t, "REJECT", provider.confirm.Action)
	require.NotNil(t, provider.confirm.RejectReason)
	assert.Equal(t, "Photo does not match", *provider.confirm.RejectReason)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, string(checkin.StatusRejected), resp["status"])
}

func TestConfirmCheckinExpired(t *testing.T) {
	provider := &mockCheckinProvider{
		err: apierror.New("CHECKIN_EXPIRED", "Check-in window has expired", http.StatusConflict),
	}
	h := NewCheckinHandler(provider)

	body := []byte(`{"action":"APPROVE"}`)
	rr := httptest.NewRecorder()
	h.ConfirmCheckin(rr, checkinRequest(http.MethodPost, "confirm", uuid.New(), body))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CHECKIN_EXPIRED", decodeError(t, rr)["code"])
}

func TestCheckinEndpointsRequireAuth(t *testing.T) {
	h := NewCheckinHandler(&mockCheckinProvider{})
	checkinID := uuid.New()

	endpoints := []func(http.ResponseWriter, *http.Request){
		h.GetCheckin, h.CancelCheckin, h.ConfirmCheckin,
	}
	for _, endpoint := range endpoints {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/checkins/"+checkinID.String(), nil)
		req = mux.SetURLVars(req, map[string]string{"checkinId": checkinID.String()})
		rr := httptest.NewRecorder()
		endpoint(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}
