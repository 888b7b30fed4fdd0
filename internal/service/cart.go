package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/session"
)

// ErrCartItemID is returned when a cart line has no menu item.
var ErrCartItemID = errors.New("cart item is missing menu_item_id")

// CartItem is one line of a pending order.
type CartItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name,omitempty"`
	Quantity   int32     `json:"quantity"`
	Size       string    `json:"size,omitempty"`
	Customize  string    `json:"customize,omitempty"`
}

// Cart is the set of lines a user has not ordered yet.
type Cart struct {
	Items []CartItem `json:"items"`
}

// CartService keeps each user's cart in a session store so it survives
// across devices until it is ordered, redeemed against, or expires.
type CartService struct {
	store session.Store
}

// NewCartService creates a new CartService.
func NewCartService(store session.Store) *CartService {
	return &CartService{store: store}
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Get returns the user's cart, empty if none is stored.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (Cart, error) {
	raw, ok, err := s.store.Get(ctx, cartKey(userID))
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	cart := Cart{Items: []CartItem{}}
	if !ok {
		return cart, nil
	}
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return cart, nil
}

// Replace stores items as the user's cart. An empty list clears it.
func (s *CartService) Replace(ctx context.Context, userID uuid.UUID, items []CartItem) (Cart, error) {
	if len(items) == 0 {
		return Cart{Items: []CartItem{}}, s.Clear(ctx, userID)
	}
	for i, it := range items {
		if it.MenuItemID == uuid.Nil {
			return Cart{}, fmt.Errorf("items[%d]: %w", i, ErrCartItemID)
		}
		if it.Quantity <= 0 {
			return Cart{}, fmt.Errorf("items[%d]: %w", i, catalog.ErrInvalidQuantity)
		}
	}

	cart := Cart{Items: items}
	b, err := json.Marshal(cart)
	if err != nil {
		return Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, cartKey(userID), string(b)); err != nil {
		return Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, cartKey(userID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// PlaceOrderItems converts the cart into order lines.
func (c Cart) PlaceOrderItems() []PlaceOrderItem {
	out := make([]PlaceOrderItem, len(c.Items))
	for i, it := range c.Items {
		out[i] = PlaceOrderItem{
			MenuItemID: it.MenuItemID.String(),
			Quantity:   it.Quantity,
			Size:       it.Size,
			Customize:  it.Customize,
		}
	}
	return out
}
