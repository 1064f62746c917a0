package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/profile"
)

type mockProfileProvider struct {
	profile  *profile.Profile
	err      error
	photoURL *string
	updated  *profile.UpdateProfileRequest
}

func (m *mockProfileProvider) Ensure(ctx context.Context, clerkID string) (*profile.Profile, error) {
	return m.profile, m.err
}

func (m *mockProfileProvider) Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	m.updated = req
	return m.profile, m.err
}

func (m *mockProfileProvider) PhotoURL(p *profile.Profile) *string {
	return m.photoURL
}

func completeProfile() *profile.Profile {
	name := "Asha"
	photo := "avatars/asha.jpg"
	return &profile.Profile{ID: uuid.New(), ClerkID: "user_clerk_1", DisplayName: &name, PhotoPath: &photo}
}

func TestGetMeRequiresAuth(t *testing.T) {
	h := NewProfileHandler(&mockProfileProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rr := httptest.NewRecorder()
	h.GetMe(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "AUTH_REQUIRED", decodeError(t, rr)["code"])
}

func TestGetMe(t *testing.T) {
	url := "https://cdn.example.com/avatars/asha.jpg"
	provider := &mockProfileProvider{profile: completeProfile(), photoURL: &url}
	h := NewProfileHandler(provider)

	rr := httptest.NewRecorder()
	h.GetMe(rr, authedRequest(http.MethodGet, "/api/v1/me", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_complete"])
	assert.Equal(t, url, resp["photo_url"])

	p, ok := resp["profile"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Asha", p["display_name"])
}

func TestGetMeIncompleteProfile(t *testing.T) {
	provider := &mockProfileProvider{profile: &profile.Profile{ID: uuid.New()}}
	h := NewProfileHandler(provider)

	rr := httptest.NewRecorder()
	h.GetMe(rr, authedRequest(http.MethodGet, "/api/v1/me", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_complete"])
	assert.Nil(t, resp["photo_url"])
}

func TestUpdateProfile(t *testing.T) {
	provider := &mockProfileProvider{profile: completeProfile()}
	h := NewProfileHandler(provider)

	body := []byte(`{"display_name":"Asha","phone":"+919876543210"}`)
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, authedRequest(http.MethodPut, "/api/v1/profile", body))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, provider.updated)
	assert.Equal(t, "Asha", provider.updated.DisplayName)
	assert.Equal(t, "+919876543210", provider.updated.Phone)
}

func TestUpdateProfilePhoneTaken(t *testing.T) {
	provider := &mockProfileProvider{
		err: apierror.New("PHONE_TAKEN", "This phone number is already linked to another account", http.StatusConflict),
	}
	h := NewProfileHandler(provider)

	body := []byte(`{"display_name":"Asha","phone":"+919876543210"}`)
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, authedRequest(http.MethodPut, "/api/v1/profile", body))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "PHONE_TAKEN", decodeError(t, rr)["code"])
}

func TestUpdateProfileRejectsBadBody(t *testing.T) {
	h := NewProfileHandler(&mockProfileProvider{})

	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, authedRequest(http.MethodPut, "/api/v1/profile", []byte(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr)["code"])
}
