package service

import (
	"github.com/google/uuid"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/loyalty"
	"github.com/sanaol/canteen/internal/notification"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/tracking"
)

// MenuItemFromRow maps a menu_items row onto the catalog type.
func MenuItemFromRow(r database.MenuItem) catalog.MenuItem {
	return catalog.MenuItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: textValue(r.Description),
		Category:    r.Category,
		Price:       numericToDecimal(r.Price),
		Image:       textValue(r.ImageUrl),
		Available:   r.IsAvailable,
	}
}

func catalogFromRows(rows []database.MenuItem) catalog.Catalog {
	items := make([]catalog.MenuItem, len(rows))
	for i, r := range rows {
		items[i] = MenuItemFromRow(r)
	}
	return catalog.New(items)
}

func orderFromRows(o database.Order, items []database.OrderItem) tracking.Order {
	lines := make([]settlement.LineItem, len(items))
	for i, it := range items {
		lines[i] = settlement.LineItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  numericToDecimal(it.UnitPrice),
			Quantity:   it.Quantity,
			Size:       textValue(it.Size),
			Customize:  textValue(it.Customize),
			Image:      textValue(it.ImageUrl),
		}
	}
	return tracking.Order{
		ID:            o.ID,
		UserID:        o.UserID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		Items:         lines,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Notes:         textValue(o.Notes),
		CreatedAt:     o.CreatedAt,
	}
}

func groupOrderItems(items []database.OrderItem) map[uuid.UUID][]database.OrderItem {
	out := make(map[uuid.UUID][]database.OrderItem)
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out
}

func eventFromRows(e database.CateringEvent, items []database.CateringEventItem) catering.Event {
	lines := make([]settlement.LineItem, len(items))
	for i, it := range items {
		lines[i] = settlement.LineItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  numericToDecimal(it.UnitPrice),
			Quantity:   it.Quantity,
			Image:      textValue(it.ImageUrl),
		}
	}
	return catering.Event{
		ID:           e.ID,
		UserID:       e.UserID,
		Name:         e.Name,
		ClientName:   e.ClientName,
		EventDate:    dateValue(e.EventDate),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Location:     e.Location,
		GuestCount:   e.GuestCount,
		ContactName:  e.ContactName,
		ContactPhone: e.ContactPhone,
		Notes:        textValue(e.Notes),
		Items:        lines,
		Ledger: settlement.Ledger{
			TotalPrice: numericToDecimal(e.TotalPrice),
			PaidAmount: numericToDecimal(e.PaidAmount),
			Status:     e.Status,
		},
	}
}

func groupEventItems(items []database.CateringEventItem) map[uuid.UUID][]database.CateringEventItem {
	out := make(map[uuid.UUID][]database.CateringEventItem)
	for _, it := range items {
		out[it.EventID] = append(out[it.EventID], it)
	}
	return out
}

func offerFromRow(o database.Offer) loyalty.Offer {
	return loyalty.Offer{
		ID:          o.ID,
		Title:       o.Title,
		Description: textValue(o.Description),
		Points:      o.Points,
	}
}

// NotificationFromRow maps a notifications row onto the feed type.
func NotificationFromRow(n database.Notification) notification.Notification {
	out := notification.Notification{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
	if n.MenuItemID.Valid {
		out.MenuItemID = uuid.UUID(n.MenuItemID.Bytes)
	}
	return out
}
