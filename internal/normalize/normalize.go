// Package normalize turns loosely shaped JSON records from the API into the
// strict domain types. Upstream payloads are inconsistent about field names
// and types, so every decoder here is weakly typed and fills defaults.
package normalize

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/notification"
	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/settlement"
	"github.com/sanaol/canteen/internal/tracking"
)

// imageKeys are tried in order when looking for an image URL.
var imageKeys = []string{
	"imageUrl", "image_url", "image", "photo", "picture", "thumbnail", "thumb",
	"image_path", "img", "url", "path", "location", "href",
}

var categoryKeys = []string{"name", "label", "title", "slug", "id"}

var absoluteRe = regexp.MustCompile(`(?i)^(blob:|data:|https?://)`)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook converts strings and JSON numbers into decimal.Decimal.
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return data, nil
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decimalHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// firstPositive returns the first non-nil, non-zero amount.
func firstPositive(vals ...*decimal.Decimal) decimal.Decimal {
	for _, v := range vals {
		if v != nil && !v.IsZero() {
			return *v
		}
	}
	return decimal.Zero
}

func parseID(candidates ...string) uuid.UUID {
	for _, c := range candidates {
		if id, err := uuid.Parse(strings.TrimSpace(c)); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// PickURL finds the first image-like string in o, descending into nested
// objects under the same keys.
func PickURL(o map[string]any) string {
	for _, k := range imageKeys {
		switch v := o[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if nested := PickURL(v); nested != "" {
				return nested
			}
		}
	}
	return ""
}

// AbsoluteURL resolves a relative media path against base. Already absolute
// URLs, blob: and data: URIs are returned unchanged.
func AbsoluteURL(raw, base string) string {
	if raw == "" || absoluteRe.MatchString(raw) {
		return raw
	}
	p := raw
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return p
	}
	ref, err := url.Parse(p)
	if err != nil {
		return p
	}
	origin := &url.URL{Scheme: b.Scheme, Host: b.Host}
	return origin.ResolveReference(ref).String()
}

// categoryName accepts either a plain string or an object with a name-ish key.
func categoryName(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case map[string]any:
		for _, k := range categoryKeys {
			if s, ok := c[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

type rawMenuItem struct {
	ID          string           `mapstructure:"id"`
	Name        string           `mapstructure:"name"`
	Description string           `mapstructure:"description"`
	Price       *decimal.Decimal `mapstructure:"price"`
	Amount      *decimal.Decimal `mapstructure:"amount"`
	UnitPrice   *decimal.Decimal `mapstructure:"unit_price"`
	Available   *bool            `mapstructure:"available"`
	IsAvailable *bool            `mapstructure:"is_available"`
}

// MenuItem normalizes a menu record. Relative image paths are resolved
// against mediaBase. Items are available unless a flag says otherwise.
func MenuItem(raw map[string]any, mediaBase string) (catalog.MenuItem, error) {
	var r rawMenuItem
	if err := decode(raw, &r); err != nil {
		return catalog.MenuItem{}, fmt.Errorf("decode menu item: %w", err)
	}

	available := true
	switch {
	case r.Available != nil:
		available = *r.Available
	case r.IsAvailable != nil:
		available = *r.IsAvailable
	}

	return catalog.MenuItem{
		ID:          parseID(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Category:    categoryName(raw["category"]),
		Price:       firstPositive(r.Price, r.Amount, r.UnitPrice),
		Image:       AbsoluteURL(PickURL(raw), mediaBase),
		Available:   available,
	}, nil
}

type rawLineItem struct {
	MenuItem   string           `mapstructure:"menu_item"`
	MenuItemID string           `mapstructure:"menu_item_id"`
	ID         string           `mapstructure:"id"`
	Name       string           `mapstructure:"name"`
	Price      *decimal.Decimal `mapstructure:"price"`
	Amount     *decimal.Decimal `mapstructure:"amount"`
	UnitPrice  *decimal.Decimal `mapstructure:"unit_price"`
	Quantity   *int32           `mapstructure:"quantity"`
	Size       string           `mapstructure:"size"`
	Customize  string           `mapstructure:"customize"`
}

// LineItem normalizes an order or event line. A missing quantity becomes
// defaultQty; a nested menu_item object is accepted in place of an ID.
func LineItem(raw map[string]any, defaultQty int32) (settlement.LineItem, error) {
	flat := raw
	if nested, ok := raw["menu_item"].(map[string]any); ok {
		flat = make(map[string]any, len(raw)+len(nested))
		for k, v := range nested {
			flat[k] = v
		}
		for k, v := range raw {
			if k != "menu_item" {
				flat[k] = v
			}
		}
		flat["menu_item_id"] = nested["id"]
	}

	var r rawLineItem
	if err := decode(flat, &r); err != nil {
		return settlement.LineItem{}, fmt.Errorf("decode line item: %w", err)
	}

	qty := defaultQty
	if r.Quantity != nil {
		qty = *r.Quantity
	}

	return settlement.LineItem{
		MenuItemID: parseID(r.MenuItem, r.MenuItemID, r.ID),
		Name:       strings.TrimSpace(r.Name),
		UnitPrice:  firstPositive(r.UnitPrice, r.Price, r.Amount),
		Quantity:   qty,
		Size:       r.Size,
		Customize:  r.Customize,
		Image:      PickURL(flat),
	}, nil
}

func lineItems(raw []map[string]any, defaultQty int32) ([]settlement.LineItem, error) {
	items := make([]settlement.LineItem, 0, len(raw))
	for i, r := range raw {
		li, err := LineItem(r, defaultQty)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, li)
	}
	return items, nil
}

type rawOrder struct {
	ID            string           `mapstructure:"id"`
	OrderNumber   string           `mapstructure:"order_number"`
	Status        string           `mapstructure:"status"`
	Items         []map[string]any `mapstructure:"items"`
	PaymentMethod string           `mapstructure:"payment_method"`
	PaymentStatus string           `mapstructure:"payment_status"`
	Notes         string           `mapstructure:"notes"`
	CreatedAt     string           `mapstructure:"created_at"`
}

// Order normalizes an order record. Order lines default to quantity 0, so a
// line without a quantity contributes nothing to the total.
func Order(raw map[string]any) (tracking.Order, error) {
	var r rawOrder
	if err := decode(raw, &r); err != nil {
		return tracking.Order{}, fmt.Errorf("decode order: %w", err)
	}
	items, err := lineItems(r.Items, 0)
	if err != nil {
		return tracking.Order{}, fmt.Errorf("order %s: %w", r.OrderNumber, err)
	}
	return tracking.Order{
		ID:            parseID(r.ID),
		OrderNumber:   r.OrderNumber,
		Status:        string(orderstatus.Parse(r.Status)),
		Items:         items,
		PaymentMethod: strings.ToUpper(strings.TrimSpace(r.PaymentMethod)),
		PaymentStatus: strings.ToUpper(strings.TrimSpace(r.PaymentStatus)),
		Notes:         r.Notes,
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}, nil
}

type rawEvent struct {
	ID           string           `mapstructure:"id"`
	UserID       string           `mapstructure:"user_id"`
	Name         string           `mapstructure:"name"`
	ClientName   string           `mapstructure:"client_name"`
	EventDate    string           `mapstructure:"event_date"`
	Date         string           `mapstructure:"date"`
	StartTime    string           `mapstructure:"start_time"`
	EndTime      string           `mapstructure:"end_time"`
	Location     string           `mapstructure:"location"`
	GuestCount   int32            `mapstructure:"guest_count"`
	ContactName  string           `mapstructure:"contact_name"`
	ContactPhone string           `mapstructure:"contact_phone"`
	Notes        string           `mapstructure:"notes"`
	Items        []map[string]any `mapstructure:"items"`
	MenuItems    []map[string]any `mapstructure:"menu_items"`
	TotalPrice   *decimal.Decimal `mapstructure:"total_price"`
	PaidAmount   *decimal.Decimal `mapstructure:"paid_amount"`
	Status       string           `mapstructure:"status"`
}

// CateringStatus folds display spellings ("Pending Payment", "pending",
// "confirmed") onto the ledger states. Unknown input is PENDING_PAYMENT.
func CateringStatus(raw string) string {
	s := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(raw)))
	switch s {
	case enum.CateringStatusConfirmed, "PAID", "COMPLETED":
		return enum.CateringStatusConfirmed
	case enum.CateringStatusCancelled, "CANCELED":
		return enum.CateringStatusCancelled
	default:
		return enum.CateringStatusPendingPayment
	}
}

// Event normalizes a catering event record. Item quantities default to 1,
// total_price is recomputed from the items when absent and paid_amount
// defaults to 0.
func Event(raw map[string]any) (catering.Event, error) {
	var r rawEvent
	if err := decode(raw, &r); err != nil {
		return catering.Event{}, fmt.Errorf("decode event: %w", err)
	}

	rawItems := r.Items
	if len(rawItems) == 0 {
		rawItems = r.MenuItems
	}
	items, err := lineItems(rawItems, 1)
	if err != nil {
		return catering.Event{}, fmt.Errorf("event %s: %w", r.ID, err)
	}

	total := settlement.ComputeTotal(items)
	if r.TotalPrice != nil {
		total = *r.TotalPrice
	}
	paid := decimal.Zero
	if r.PaidAmount != nil {
		paid = *r.PaidAmount
	}

	dateStr := r.EventDate
	if dateStr == "" {
		dateStr = r.Date
	}

	return catering.Event{
		ID:           parseID(r.ID),
		UserID:       parseID(r.UserID),
		Name:         strings.TrimSpace(r.Name),
		ClientName:   strings.TrimSpace(r.ClientName),
		EventDate:    parseDate(dateStr),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Location:     r.Location,
		GuestCount:   r.GuestCount,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Notes:        r.Notes,
		Items:        items,
		Ledger: settlement.Ledger{
			TotalPrice: total,
			PaidAmount: paid,
			Status:     CateringStatus(r.Status),
		},
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	catering.DateLayout,
}

// parseTimestamp tries the layouts the API has been seen to emit. Unparseable
// input is the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseDate accepts a bare date or a full timestamp. Unparseable input is the
// zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(catering.DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

type rawNotification struct {
	ID         string `mapstructure:"id"`
	Type       string `mapstructure:"type"`
	MenuItemID string `mapstructure:"menu_item_id"`
	ItemID     string `mapstructure:"item_id"`
	Title      string `mapstructure:"title"`
	Message    string `mapstructure:"message"`
	Body       string `mapstructure:"body"`
	CreatedAt  string `mapstructure:"created_at"`
}

// Notification normalizes a notification record.
func Notification(raw map[string]any) (notification.Notification, error) {
	var r rawNotification
	if err := decode(raw, &r); err != nil {
		return notification.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	msg := r.Message
	if msg == "" {
		msg = r.Body
	}
	return notification.Notification{
		ID:         parseID(r.ID),
		Type:       strings.ToLower(strings.TrimSpace(r.Type)),
		MenuItemID: parseID(r.MenuItemID, r.ItemID),
		Title:      r.Title,
		Message:    msg,
		CreatedAt:  parseTimestamp(r.CreatedAt),
	}, nil
}

// List applies fn to every record, stopping at the first failure.
func List[T any](raw []map[string]any, fn func(map[string]any) (T, error)) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
