// Package catalog holds the menu items that orders and catering events
// snapshot their line items from.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/settlement"
)

// Errors returned while building line items.
var (
	ErrItemNotFound    = errors.New("menu item not found")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
)

// MenuItem is a catalog entry.
type MenuItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Available   bool            `json:"available"`
}

// Catalog indexes menu items by ID.
type Catalog map[uuid.UUID]MenuItem

// New builds a Catalog. Later duplicates win.
func New(items []MenuItem) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// Line snapshots a single menu item at the given quantity.
func (c Catalog) Line(id uuid.UUID, qty int32) (settlement.LineItem, error) {
	mi, ok := c[id]
	if !ok {
		return settlement.LineItem{}, fmt.Errorf("%s: %w", id, ErrItemNotFound)
	}
	if qty <= 0 {
		return settlement.LineItem{}, fmt.Errorf("%s: %w", id, ErrInvalidQuantity)
	}
	return settlement.LineItem{
		MenuItemID: mi.ID,
		Name:       mi.Name,
		UnitPrice:  mi.Price,
		Quantity:   qty,
		Image:      mi.Image,
	}, nil
}

// BuildLineItems snapshots each selected menu item into a line item.
// Quantities default to 1 when absent; an explicit quantity <= 0 is rejected.
// Every selected ID must be present in the catalog.
func BuildLineItems(selected []uuid.UUID, c Catalog, quantities map[uuid.UUID]int32) ([]settlement.LineItem, error) {
	items := make([]settlement.LineItem, 0, len(selected))
	for i, id := range selected {
		qty := int32(1)
		if q, ok := quantities[id]; ok {
			qty = q
		}
		li, err := c.Line(id, qty)
		if err != nil {
			return nil, fmt.Errorf("items[%d] %w", i, err)
		}
		items = append(items, li)
	}
	return items, nil
}

// Categories returns the distinct non-empty categories, sorted case-insensitively.
func Categories(items []MenuItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		c := strings.TrimSpace(it.Category)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
