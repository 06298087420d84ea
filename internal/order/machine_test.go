package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portshare-backend/internal/apperr"
	"portshare-backend/internal/model"
)

func testOrder(status model.OrderStatus) *model.RentalOrder {
	return &model.RentalOrder{
		ID:          "ord-1",
		PortID:      1,
		RequesterID: "req-1",
		OwnerID:     "own-1",
		Status:      status,
	}
}

func TestClassify(t *testing.T) {
	o := testOrder(model.OrderPendingApproval)
	assert.Equal(t, RoleRequester, Classify(o, "req-1"))
	assert.Equal(t, RoleOwner, Classify(o, "own-1"))
	assert.Equal(t, RoleNone, Classify(o, "stranger"))
}

func TestApply_TransitionTable(t *testing.T) {
	now := time.Now()
	future := now.Add(48 * time.Hour)

	testCases := []struct {
		name       string
		from       model.OrderStatus
		action     Action
		role       Role
		wantStatus model.OrderStatus
		wantEffect Effect
		wantErr    error
	}{
		{"owner approves pending", model.OrderPendingApproval, ActionApprove, RoleOwner, model.OrderContractGenerated, EffectNone, nil},
		{"owner rejects pending", model.OrderPendingApproval, ActionReject, RoleOwner, model.OrderRejected, EffectReleasePort, nil},
		{"requester cannot approve", model.OrderPendingApproval, ActionApprove, RoleRequester, "", EffectNone, apperr.ErrForbidden},
		{"requester cannot reject", model.OrderPendingApproval, ActionReject, RoleRequester, "", EffectNone, apperr.ErrForbidden},
		{"stranger always forbidden", model.OrderPendingApproval, ActionApprove, RoleNone, "", EffectNone, apperr.ErrForbidden},
		{"cannot complete pending order", model.OrderPendingApproval, ActionComplete, RoleRequester, "", EffectNone, apperr.ErrInvalidTransition},
		{"cannot sign pending order", model.OrderPendingApproval, ActionSign, RoleRequester, "", EffectNone, apperr.ErrInvalidTransition},
		{"no shortcut from signed to completed", model.OrderContractSigned, ActionComplete, RoleRequester, "", EffectNone, apperr.ErrInvalidTransition},
		{"owner cannot schedule", model.OrderContractSigned, ActionSchedule, RoleOwner, "", EffectNone, apperr.ErrForbidden},
		{"requester starts scheduled installation", model.OrderInstallationScheduled, ActionStart, RoleRequester, model.OrderInstallationInProgress, EffectNone, nil},
		{"owner cannot start", model.OrderInstallationScheduled, ActionStart, RoleOwner, "", EffectNone, apperr.ErrForbidden},
		{"requester completes in-progress installation", model.OrderInstallationInProgress, ActionComplete, RoleRequester, model.OrderCompleted, EffectOccupyPort, nil},
		{"requester cancels scheduled order", model.OrderInstallationScheduled, ActionCancel, RoleRequester, model.OrderCancelled, EffectReleasePort, nil},
		{"owner cancels pending order", model.OrderPendingApproval, ActionCancel, RoleOwner, model.OrderCancelled, EffectReleasePort, nil},
		{"completed is terminal", model.OrderCompleted, ActionCancel, RoleRequester, "", EffectNone, apperr.ErrInvalidTransition},
		{"rejected is terminal", model.OrderRejected, ActionCancel, RoleOwner, "", EffectNone, apperr.ErrInvalidTransition},
		{"cancelled is terminal", model.OrderCancelled, ActionApprove, RoleOwner, "", EffectNone, apperr.ErrInvalidTransition},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := testOrder(tc.from)
			var scheduled *time.Time
			if tc.action == ActionSchedule {
				scheduled = &future
			}

			outcome, err := Apply(o, tc.action, tc.role, now, scheduled)

			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				// A failed transition leaves the order untouched.
				assert.Equal(t, tc.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.True(t, outcome.Changed)
			assert.Equal(t, tc.wantStatus, o.Status)
			assert.Equal(t, tc.wantEffect, outcome.Effect)
		})
	}
}

func TestApply_SigningBothOrders(t *testing.T) {
	now := time.Now()

	for _, first := range []Role{RoleRequester, RoleOwner} {
		second := RoleOwner
		if first == RoleOwner {
			second = RoleRequester
		}

		o := testOrder(model.OrderContractGenerated)

		outcome, err := Apply(o, ActionSign, first, now, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Changed)
		// One signature alone does not move the order.
		assert.Equal(t, model.OrderContractGenerated, o.Status)

		outcome, err = Apply(o, ActionSign, second, now, nil)
		require.NoError(t, err)
		assert.True(t, outcome.Changed)
		assert.Equal(t, model.OrderContractSigned, o.Status)
		assert.True(t, o.RequesterSigned)
		assert.True(t, o.OwnerSigned)
	}
}

func TestApply_SignIsIdempotent(t *testing.T) {
	now := time.Now()
	o := testOrder(model.OrderContractGenerated)

	outcome, err := Apply(o, ActionSign, RoleRequester, now, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.True(t, o.RequesterSigned)

	// Signing again is a no-op, not an error.
	outcome, err = Apply(o, ActionSign, RoleRequester, now, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Equal(t, model.OrderContractGenerated, o.Status)
	assert.True(t, o.RequesterSigned)
	assert.False(t, o.OwnerSigned)
}

func TestApply_ScheduleValidation(t *testing.T) {
	now := time.Now()

	t.Run("missing date", func(t *testing.T) {
		o := testOrder(model.OrderContractSigned)
		_, err := Apply(o, ActionSchedule, RoleRequester, now, nil)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, model.OrderContractSigned, o.Status)
	})

	t.Run("past date", func(t *testing.T) {
		o := testOrder(model.OrderContractSigned)
		past := now.Add(-time.Hour)
		_, err := Apply(o, ActionSchedule, RoleRequester, now, &past)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, model.OrderContractSigned, o.Status)
	})

	t.Run("future date", func(t *testing.T) {
		o := testOrder(model.OrderContractSigned)
		future := now.Add(time.Hour)
		outcome, err := Apply(o, ActionSchedule, RoleRequester, now, &future)
		require.NoError(t, err)
		assert.True(t, outcome.Changed)
		assert.Equal(t, model.OrderInstallationScheduled, o.Status)
		require.NotNil(t, o.ScheduledDate)
		assert.Equal(t, future, *o.ScheduledDate)
	})
}

func TestApply_CompleteSetsCompletionDate(t *testing.T) {
	now := time.Now()
	o := testOrder(model.OrderInstallationInProgress)

	_, err := Apply(o, ActionComplete, RoleRequester, now, nil)
	require.NoError(t, err)
	require.NotNil(t, o.CompletedDate)
	assert.Equal(t, now, *o.CompletedDate)
}

func TestApply_InvalidTransitionNamesCurrentStatus(t *testing.T) {
	o := testOrder(model.OrderPendingApproval)
	_, err := Apply(o, ActionComplete, RoleRequester, time.Now(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(model.OrderPendingApproval))
}
