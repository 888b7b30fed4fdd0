package catering_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/settlement"
)

func validRequest(ids ...uuid.UUID) catering.ScheduleRequest {
	return catering.ScheduleRequest{
		UserID:       uuid.New(),
		Name:         "Department Assembly",
		ClientName:   "Prof. Reyes",
		EventDate:    "2099-01-01",
		StartTime:    "09:00",
		EndTime:      "12:00",
		Location:     "AVR 2",
		GuestCount:   40,
		ContactName:  "Ana Reyes",
		ContactPhone: "09171234567",
		MenuItemIDs:  ids,
	}
}

func TestScheduleRequest_Validate(t *testing.T) {
	id := uuid.New()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRequest(id).Validate())
	})

	t.Run("missing fields are listed", func(t *testing.T) {
		req := validRequest(id)
		req.Location = "  "
		req.ContactPhone = ""
		err := req.Validate()
		require.ErrorIs(t, err, catering.ErrValidation)
		assert.Contains(t, err.Error(), "location")
		assert.Contains(t, err.Error(), "contact_phone")
	})

	t.Run("guest count must be positive", func(t *testing.T) {
		req := validRequest(id)
		req.GuestCount = 0
		assert.ErrorIs(t, req.Validate(), catering.ErrValidation)
	})

	t.Run("bad date", func(t *testing.T) {
		req := validRequest(id)
		req.EventDate = "01/01/2099"
		assert.ErrorIs(t, req.Validate(), catering.ErrValidation)
	})

	t.Run("no items", func(t *testing.T) {
		assert.ErrorIs(t, validRequest().Validate(), catering.ErrNoItems)
	})
}

func TestNew_OpensLedgerWithDownPayment(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := catalog.New([]catalog.MenuItem{
		{ID: a, Name: "Adobo Tray", Price: decimal.RequireFromString("1500")},
		{ID: b, Name: "Leche Flan", Price: decimal.RequireFromString("500")},
	})

	e, err := catering.New(validRequest(a, b), c)
	require.NoError(t, err)

	assert.Equal(t, "2000.00", e.TotalPrice.StringFixed(2))
	assert.Equal(t, "1000.00", e.PaidAmount.StringFixed(2))
	assert.Equal(t, "1000.00", e.RemainingBalance().StringFixed(2))
	assert.Equal(t, settlement.StatusPendingPayment, e.Status)
	assert.Len(t, e.Items, 2)
	assert.Equal(t, 2099, e.EventDate.Year())
}

func TestNew_UnknownItem(t *testing.T) {
	_, err := catering.New(validRequest(uuid.New()), catalog.New(nil))
	assert.ErrorIs(t, err, catering.ErrItemNotFound)
}

func TestSettleRemaining(t *testing.T) {
	e := catering.Event{Ledger: settlement.OpenLedger(decimal.RequireFromString("2000"))}

	settled, err := catering.SettleRemaining(e)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusConfirmed, settled.Status)
	assert.True(t, settled.RemainingBalance().IsZero())

	again, err := catering.SettleRemaining(settled)
	assert.ErrorIs(t, err, settlement.ErrAlreadySettled)
	assert.Equal(t, settled.Ledger, again.Ledger)
}

func TestCancel(t *testing.T) {
	pending := catering.Event{Ledger: settlement.OpenLedger(decimal.RequireFromString("100"))}

	cancelled, err := catering.Cancel(pending)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusCancelled, cancelled.Status)

	_, err = catering.Cancel(cancelled)
	assert.ErrorIs(t, err, catering.ErrNotCancellable)

	confirmed, _ := catering.SettleRemaining(pending)
	_, err = catering.Cancel(confirmed)
	assert.ErrorIs(t, err, catering.ErrNotCancellable)
}
