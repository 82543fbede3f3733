package application

import (
	"errors"
	"fmt"

	ordertypes "github.com/Apurer/go-gin-order-tracking/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrFeedUnavailable is returned when live tracking is not wired.
	ErrFeedUnavailable = errors.New("live order feed is not configured")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidCustomer) ||
		errors.Is(err, domain.ErrInvalidLocation) ||
		errors.Is(err, domain.ErrNoItems) ||
		errors.Is(err, domain.ErrInvalidItem) ||
		errors.Is(err, domain.ErrInvalidRejection) ||
		errors.Is(err, domain.ErrInvalidPrepTime) ||
		errors.Is(err, domain.ErrInvalidActor) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, ordertypes.ErrUnknownAction) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
