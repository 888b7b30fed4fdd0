// Package loyalty decides whether a user has enough credit points for an offer.
package loyalty

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInsufficientPoints is returned when the balance is below the offer cost.
var ErrInsufficientPoints = errors.New("not enough credit points")

// Offer is a reward that can be bought with credit points.
type Offer struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Points      int32     `json:"points"`
}

// Redemption is the outcome of a successful redeem.
type Redemption struct {
	Success         bool  `json:"success"`
	RemainingPoints int32 `json:"remaining_points"`
}

// Redeem subtracts the offer cost from available. It never touches the cart;
// clearing it is up to the caller.
func Redeem(offer Offer, available int32) (Redemption, error) {
	if offer.Points < 0 {
		return Redemption{}, fmt.Errorf("offer %s: negative cost %d", offer.ID, offer.Points)
	}
	if available < offer.Points {
		return Redemption{RemainingPoints: available}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientPoints, offer.Points, available)
	}
	return Redemption{Success: true, RemainingPoints: available - offer.Points}, nil
}
