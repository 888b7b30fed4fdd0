// Package catering is the catering event aggregate: scheduling fields, the
// snapshotted menu selection, and the deposit ledger that decides whether an
// event is still waiting on its remaining payment.
package catering

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/settlement"
)

// DateLayout is the wire format of EventDate.
const DateLayout = "2006-01-02"

// Errors returned by the catering aggregate.
var (
	ErrValidation     = errors.New("missing required fields")
	ErrNoItems        = errors.New("select at least one menu item")
	ErrNotCancellable = errors.New("only events pending payment can be cancelled")
)

// Re-exported so callers of this package can match snapshot failures without
// importing catalog.
var (
	ErrItemNotFound    = catalog.ErrItemNotFound
	ErrInvalidQuantity = catalog.ErrInvalidQuantity
)

// Event is a scheduled catering booking.
type Event struct {
	ID           uuid.UUID             `json:"id"`
	UserID       uuid.UUID             `json:"user_id"`
	Name         string                `json:"name"`
	ClientName   string                `json:"client_name"`
	EventDate    time.Time             `json:"event_date"`
	StartTime    string                `json:"start_time"`
	EndTime      string                `json:"end_time"`
	Location     string                `json:"location"`
	GuestCount   int32                 `json:"guest_count"`
	ContactName  string                `json:"contact_name,omitempty"`
	ContactPhone string                `json:"contact_phone,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	Items        []settlement.LineItem `json:"items"`
	settlement.Ledger
}

// RemainingBalance is what is still owed on the event.
func (e Event) RemainingBalance() decimal.Decimal {
	return settlement.RemainingBalance(e.Ledger)
}

// ScheduleRequest carries the form fields of a new booking.
type ScheduleRequest struct {
	UserID       uuid.UUID
	Name         string
	ClientName   string
	EventDate    string
	StartTime    string
	EndTime      string
	Location     string
	GuestCount   int32
	ContactName  string
	ContactPhone string
	Notes        string
	MenuItemIDs  []uuid.UUID
	Quantities   map[uuid.UUID]int32
}

// Validate checks that every required field is present and the date parses.
func (r ScheduleRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", r.Name},
		{"client_name", r.ClientName},
		{"event_date", r.EventDate},
		{"start_time", r.StartTime},
		{"end_time", r.EndTime},
		{"location", r.Location},
		{"contact_name", r.ContactName},
		{"contact_phone", r.ContactPhone},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if r.GuestCount <= 0 {
		missing = append(missing, "guest_count")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if _, err := time.Parse(DateLayout, strings.TrimSpace(r.EventDate)); err != nil {
		return fmt.Errorf("%w: event_date must be YYYY-MM-DD", ErrValidation)
	}
	if len(r.MenuItemIDs) == 0 {
		return ErrNoItems
	}
	return nil
}

// BuildLineItems snapshots the selected menu items for a booking.
func BuildLineItems(selected []uuid.UUID, c catalog.Catalog, quantities map[uuid.UUID]int32) ([]settlement.LineItem, error) {
	return catalog.BuildLineItems(selected, c, quantities)
}

// New validates the request, snapshots the selection from the catalog and
// opens the ledger with the 50% down payment already collected.
func New(req ScheduleRequest, c catalog.Catalog) (Event, error) {
	if err := req.Validate(); err != nil {
		return Event{}, err
	}

	items, err := BuildLineItems(req.MenuItemIDs, c, req.Quantities)
	if err != nil {
		return Event{}, err
	}

	date, _ := time.Parse(DateLayout, strings.TrimSpace(req.EventDate))

	return Event{
		UserID:       req.UserID,
		Name:         strings.TrimSpace(req.Name),
		ClientName:   strings.TrimSpace(req.ClientName),
		EventDate:    date,
		StartTime:    strings.TrimSpace(req.StartTime),
		EndTime:      strings.TrimSpace(req.EndTime),
		Location:     strings.TrimSpace(req.Location),
		GuestCount:   req.GuestCount,
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Notes:        strings.TrimSpace(req.Notes),
		Items:        items,
		Ledger:       settlement.OpenLedger(settlement.ComputeTotal(items)),
	}, nil
}

// SettleRemaining pays off the event. See settlement.SettleRemaining.
func SettleRemaining(e Event) (Event, error) {
	l, err := settlement.SettleRemaining(e.Ledger)
	e.Ledger = l
	return e, err
}

// Cancel moves a pending event to CANCELLED. Confirmed and already
// cancelled events are left untouched.
func Cancel(e Event) (Event, error) {
	if e.Status != settlement.StatusPendingPayment {
		return e, fmt.Errorf("%w: status is %s", ErrNotCancellable, e.Status)
	}
	e.Status = settlement.StatusCancelled
	return e, nil
}
