package domain

import (
	"errors"
	"fmt"
)

// Status enumerates order progression.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusAccepted  Status = "accepted"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
)

// transitions is the complete lifecycle table. Terminal statuses map to nothing.
var transitions = map[Status][]Status{
	StatusPlaced:    {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusRejected:  {},
	StatusCancelled: {},
}

// AllStatuses lists every known status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPlaced,
		StatusAccepted,
		StatusPreparing,
		StatusReady,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
	}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s Status) String() string { return string(s) }

// ParseStatus converts raw input into a known status.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// NextAllowed returns the statuses reachable from current in one step.
// The returned slice is a copy and may be modified by the caller.
func NextAllowed(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to appears in the lifecycle table.
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateTransition explains why from -> to is rejected, or returns nil.
func ValidateTransition(from, to Status) error {
	switch {
	case !from.IsValid():
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, from)
	case !to.IsValid():
		return fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, to)
	case from == to:
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, from)
	case from.IsTerminal():
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	case !CanTransition(from, to):
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
