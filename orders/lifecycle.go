package orders

import (
	"errors"
	"fmt"
	"math"
	"time"

	"harvestlink/models"
)

var (
	ErrMissingAddress  = errors.New("delivery address and coordinates are required")
	ErrNoOrigin        = errors.New("listing has no location, cannot calculate delivery")
	ErrBadTransition   = errors.New("order is not in a state that allows this change")
	ErrListingInactive = errors.New("listing is not available")
)

// QuantityError reports a requested quantity outside 1..available.
type QuantityError struct {
	Requested int
	Available int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d, got %d", e.Available, e.Requested)
}

// OutOfRangeError reports a delivery point beyond the service radius.
type OutOfRangeError struct {
	DistanceKm float64
	MaxKm      float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("delivery point is %.1f km away, beyond the %.0f km service radius", e.DistanceKm, e.MaxKm)
}

// ValidateQuantity enforces 1 <= requested <= available.
func ValidateQuantity(requested, available int) error {
	if requested < 1 || requested > available {
		return &QuantityError{Requested: requested, Available: available}
	}
	return nil
}

// TotalPrice is quantity times unit price, rounded to whole cents.
func TotalPrice(quantity int, pricePerUnit float64) float64 {
	return math.Round(float64(quantity)*pricePerUnit*100) / 100
}

// transitions is the order lifecycle: pending -> confirmed -> completed,
// with cancellation only out of pending.
var transitions = map[string][]string{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderCompleted},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DueForAutoComplete reports whether a confirmed order's pickup estimate has
// passed. The write it gates targets the completed state, so firing it more
// than once, or losing the race against a manual delivery, changes nothing.
func DueForAutoComplete(status string, pickupTime *time.Time, now time.Time) bool {
	if status != models.OrderConfirmed || pickupTime == nil {
		return false
	}
	return !now.Before(*pickupTime)
}
