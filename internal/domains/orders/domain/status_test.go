package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextAllowed_Table(t *testing.T) {
	cases := map[Status][]Status{
		StatusPlaced:    {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted:  {StatusPreparing, StatusCancelled},
		StatusPreparing: {StatusReady, StatusCancelled},
		StatusReady:     {StatusCompleted},
		StatusCompleted: {},
		StatusRejected:  {},
		StatusCancelled: {},
	}
	for from, want := range cases {
		t.Run(string(from), func(t *testing.T) {
			require.ElementsMatch(t, want, NextAllowed(from))
		})
	}
}

func TestNextAllowed_ReturnsCopy(t *testing.T) {
	next := NextAllowed(StatusPlaced)
	next[0] = StatusCompleted
	require.Equal(t, StatusAccepted, NextAllowed(StatusPlaced)[0])
}

func TestValidateTransition_EveryPair(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			err := ValidateTransition(from, to)
			if CanTransition(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestValidateTransition_SelfLoopAndUnknown(t *testing.T) {
	require.ErrorIs(t, ValidateTransition(StatusPlaced, StatusPlaced), ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(Status("brewing"), StatusReady), ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(StatusPlaced, Status("brewing")), ErrInvalidTransition)
}

func TestTerminalStatuses(t *testing.T) {
	require.True(t, StatusCompleted.IsTerminal())
	require.True(t, StatusRejected.IsTerminal())
	require.True(t, StatusCancelled.IsTerminal())
	require.False(t, StatusReady.IsTerminal())
	require.False(t, Status("unknown").IsTerminal())
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("preparing")
	require.NoError(t, err)
	require.Equal(t, StatusPreparing, status)

	_, err = ParseStatus("lost")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
