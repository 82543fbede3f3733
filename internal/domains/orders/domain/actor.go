package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies the kind of principal driving a transition.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

var (
	ErrForbidden    = errors.New("actor is not allowed to perform this transition")
	ErrInvalidActor = errors.New("actor is invalid")
)

// Actor is the principal recorded in status history.
type Actor struct {
	Role Role
	ID   string
}

func CustomerActor(id string) Actor { return Actor{Role: RoleCustomer, ID: id} }

func AdminActor(id string) Actor { return Actor{Role: RoleAdmin, ID: id} }

// SystemActor is used by automation that acts with admin rights.
func SystemActor(id string) Actor { return Actor{Role: RoleSystem, ID: id} }

// Validate ensures the actor can be recorded.
func (a Actor) Validate() error {
	switch a.Role {
	case RoleCustomer, RoleAdmin, RoleSystem:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidActor, a.Role)
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidActor)
	}
	return nil
}

func (a Actor) String() string { return string(a.Role) + ":" + a.ID }

func (a Actor) isStaff() bool { return a.Role == RoleAdmin || a.Role == RoleSystem }

// CancelPolicy decides which principals may cancel an order.
type CancelPolicy struct {
	Customer bool
	Admin    bool
}

// DefaultCancelPolicy lets both the owning customer and admins cancel before ready.
func DefaultCancelPolicy() CancelPolicy {
	return CancelPolicy{Customer: true, Admin: true}
}

// Authorize checks that actor may move order to target. It does not check
// lifecycle legality; see ValidateTransition.
func Authorize(order *Order, target Status, actor Actor, policy CancelPolicy) error {
	if order == nil {
		return errors.New("order is nil")
	}
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.Role == RoleCustomer && actor.ID != order.CustomerID {
		return fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	if target == StatusCancelled {
		switch {
		case actor.Role == RoleCustomer && policy.Customer:
			return nil
		case actor.isStaff() && policy.Admin:
			return nil
		}
		return fmt.Errorf("%w: %s may not cancel orders", ErrForbidden, actor.Role)
	}
	if !actor.isStaff() {
		return fmt.Errorf("%w: only staff may move an order to %s", ErrForbidden, target)
	}
	return nil
}

// CanView reports whether actor may read order.
func CanView(order *Order, actor Actor) bool {
	if order == nil {
		return false
	}
	if actor.isStaff() {
		return true
	}
	return actor.Role == RoleCustomer && actor.ID == order.CustomerID
}
