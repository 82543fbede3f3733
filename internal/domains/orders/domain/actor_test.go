package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	order := &Order{ID: "o1", CustomerID: "cust-1", Status: StatusPlaced}
	permissive := DefaultCancelPolicy()

	tests := []struct {
		name   string
		target Status
		actor  Actor
		policy CancelPolicy
		want   error
	}{
		{"admin accepts", StatusAccepted, AdminActor("a1"), permissive, nil},
		{"system completes", StatusCompleted, SystemActor("loyalty"), permissive, nil},
		{"customer cannot accept", StatusAccepted, CustomerActor("cust-1"), permissive, ErrForbidden},
		{"owner cancels", StatusCancelled, CustomerActor("cust-1"), permissive, nil},
		{"stranger cancels", StatusCancelled, CustomerActor("cust-2"), permissive, ErrForbidden},
		{"admin cancels", StatusCancelled, AdminActor("a1"), permissive, nil},
		{"customer cancel disabled", StatusCancelled, CustomerActor("cust-1"), CancelPolicy{Admin: true}, ErrForbidden},
		{"admin cancel disabled", StatusCancelled, AdminActor("a1"), CancelPolicy{Customer: true}, ErrForbidden},
		{"anonymous actor", StatusAccepted, Actor{Role: RoleAdmin}, permissive, ErrInvalidActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(order, tt.target, tt.actor, tt.policy)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCanView(t *testing.T) {
	order := &Order{ID: "o1", CustomerID: "cust-1"}
	require.True(t, CanView(order, CustomerActor("cust-1")))
	require.True(t, CanView(order, AdminActor("a1")))
	require.False(t, CanView(order, CustomerActor("cust-2")))
	require.False(t, CanView(nil, AdminActor("a1")))
}
