package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/checkin"
)

func transitionCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	return apiErr.Code
}

func TestCheckTransitionStaffDecisionsExpire(t *testing.T) {
	now := time.Now()
	c := &checkin.Checkin{Status: checkin.StatusPending, ExpiresAt: now.Add(-time.Minute)}

	err := checkTransition(c, checkin.StatusApproved, now)
	assert.Equal(t, "CHECKIN_EXPIRED", transitionCode(t, err))

	err = checkTransition(c, checkin.StatusRejected, now)
	assert.Equal(t, "CHECKIN_EXPIRED", transitionCode(t, err))
}

func TestCheckTransitionCancelAllowedAfterExpiry(t *testing.T) {
	// A lapsed check-in still occupies the one-pending-per-user slot; the
	// owner must be able to cancel it to order again.
	now := time.Now()
	c := &checkin.Checkin{Status: checkin.StatusPending, ExpiresAt: now.Add(-time.Minute)}

	assert.NoError(t, checkTransition(c, checkin.StatusCancelled, now))
}

func TestCheckTransitionWithinWindow(t *testing.T) {
	now := time.Now()
	c := &checkin.Checkin{Status: checkin.StatusPending, ExpiresAt: now.Add(30 * time.Second)}

	assert.NoError(t, checkTransition(c, checkin.StatusApproved, now))
	assert.NoError(t, checkTransition(c, checkin.StatusRejected, now))
	assert.NoError(t, checkTransition(c, checkin.StatusCancelled, now))
}

func TestCheckTransitionResolvedConflicts(t *testing.T) {
	now := time.Now()
	for _, status := range []checkin.Status{checkin.StatusApproved, checkin.StatusRejected, checkin.StatusCancelled} {
		c := &checkin.Checkin{Status: status, ExpiresAt: now.Add(time.Minute)}

		err := checkTransition(c, checkin.StatusCancelled, now)
		assert.Equal(t, "CHECKIN_NOT_PENDING", transitionCode(t, err))
	}
}
