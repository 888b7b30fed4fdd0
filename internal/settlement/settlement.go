// Package settlement computes order totals, the catering down payment, and
// reconciles the paid/remaining balance of a deposit-backed booking.
//
// Nothing here talks to a payment gateway. SettleRemaining is meant to be
// called only after an external confirmation has been received.
package settlement

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/enum"
)

// Errors returned by the settlement engine.
var (
	ErrAlreadySettled  = errors.New("nothing left to pay")
	ErrLedgerCancelled = errors.New("booking is cancelled")
)

// Ledger states.
const (
	StatusPendingPayment = enum.CateringStatusPendingPayment
	StatusConfirmed      = enum.CateringStatusConfirmed
	StatusCancelled      = enum.CateringStatusCancelled
)

var downPaymentRate = decimal.NewFromFloat(0.5)

// LineItem is a priced snapshot of a menu item taken when an order or event
// is created. Later catalog edits never change it.
type LineItem struct {
	MenuItemID uuid.UUID       `json:"menu_item"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int32           `json:"quantity"`
	Size       string          `json:"size,omitempty"`
	Customize  string          `json:"customize,omitempty"`
	Image      string          `json:"image,omitempty"`
}

// Subtotal is price * quantity with negative inputs treated as zero.
func (li LineItem) Subtotal() decimal.Decimal {
	price := li.UnitPrice
	if price.IsNegative() {
		price = decimal.Zero
	}
	qty := li.Quantity
	if qty < 0 {
		qty = 0
	}
	return price.Mul(decimal.NewFromInt32(qty))
}

// ComputeTotal sums the line subtotals. Missing prices and quantities are
// zero values and contribute nothing.
func ComputeTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ComputeDownPayment is half of total rounded half-up to cents.
func ComputeDownPayment(total decimal.Decimal) decimal.Decimal {
	return total.Mul(downPaymentRate).Round(2)
}

// Ledger tracks how much of a booking has been paid.
// Invariant: 0 <= PaidAmount <= TotalPrice, Status == CONFIRMED iff PaidAmount == TotalPrice.
type Ledger struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     string          `json:"status"`
}

// OpenLedger starts a booking with its down payment already collected.
// A zero-priced booking is confirmed immediately.
func OpenLedger(total decimal.Decimal) Ledger {
	l := Ledger{
		TotalPrice: total,
		PaidAmount: ComputeDownPayment(total),
		Status:     StatusPendingPayment,
	}
	if l.PaidAmount.Equal(l.TotalPrice) {
		l.Status = StatusConfirmed
	}
	return l
}

// RemainingBalance is max(0, total - paid).
func RemainingBalance(l Ledger) decimal.Decimal {
	rem := l.TotalPrice.Sub(l.PaidAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Overpaid reports a ledger whose paid amount exceeds its total. Such a
// ledger still settles as nothing-left-to-pay; callers should log it.
func Overpaid(l Ledger) bool {
	return l.PaidAmount.GreaterThan(l.TotalPrice)
}

// SettleRemaining marks the remaining balance as paid. When there is nothing
// left to pay the ledger is returned unchanged with ErrAlreadySettled, which
// callers treat as an idempotent success.
func SettleRemaining(l Ledger) (Ledger, error) {
	if l.Status == StatusCancelled {
		return l, ErrLedgerCancelled
	}
	if !RemainingBalance(l).IsPositive() {
		return l, ErrAlreadySettled
	}
	l.PaidAmount = l.TotalPrice
	l.Status = StatusConfirmed
	return l, nil
}
