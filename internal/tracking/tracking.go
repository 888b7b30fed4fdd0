// Package tracking is the read model behind the "my orders" screen.
package tracking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/settlement"
)

// Order is a placed order as shown to its owner.
type Order struct {
	ID            uuid.UUID             `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	OrderNumber   string                `json:"order_number"`
	Status        string                `json:"status"`
	Items         []settlement.LineItem `json:"items"`
	PaymentMethod string                `json:"payment_method"`
	PaymentStatus string                `json:"payment_status"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Total sums the order's line items.
func (o Order) Total() decimal.Decimal {
	return settlement.ComputeTotal(o.Items)
}

// Progress is the order's position on the tracking bar.
func (o Order) Progress() orderstatus.Progress {
	return orderstatus.ProgressOf(o.Status)
}

// View is an order plus the derived fields the client renders.
type View struct {
	Order
	Total    decimal.Decimal      `json:"total"`
	Progress orderstatus.Progress `json:"progress"`
}

// NewView derives total and progress for o.
func NewView(o Order) View {
	return View{Order: o, Total: o.Total(), Progress: o.Progress()}
}

// Buckets groups orders for display.
type Buckets struct {
	Active    []View `json:"active"`
	Completed []View `json:"completed"`
	Cancelled []View `json:"cancelled"`
}

// Partition splits orders by lifecycle, preserving input order inside each
// bucket. Unknown statuses count as active.
func Partition(orders []Order) Buckets {
	b := Buckets{Active: []View{}, Completed: []View{}, Cancelled: []View{}}
	for _, o := range orders {
		v := NewView(o)
		switch orderstatus.Parse(o.Status) {
		case orderstatus.Completed:
			b.Completed = append(b.Completed, v)
		case orderstatus.Cancelled:
			b.Cancelled = append(b.Cancelled, v)
		default:
			b.Active = append(b.Active, v)
		}
	}
	return b
}
