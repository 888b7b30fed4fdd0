package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/loyalty"
	"github.com/sanaol/canteen/internal/normalize"
	"github.com/sanaol/canteen/internal/notification"
	"github.com/sanaol/canteen/internal/session"
	"github.com/sanaol/canteen/internal/tracking"
)

// --- Auth ---

// LoginResult is the token pair and profile returned by /auth/login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Profile      session.Profile
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Profile: session.Profile{
			UserID: resp.User.ID,
			Name:   resp.User.FullName,
			Email:  resp.User.Email,
			Role:   resp.User.Role,
		},
	}, nil
}

// --- Menu ---

// MenuQuery filters GET /menu/items. Zero values are omitted.
type MenuQuery struct {
	Page          int
	Limit         int
	Category      string
	AvailableOnly bool
}

// Pagination mirrors the server's pagination block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// MenuPage is one page of menu items.
type MenuPage struct {
	Items      []catalog.MenuItem
	Pagination Pagination
}

func (c *Client) MenuItems(ctx context.Context, q MenuQuery) (MenuPage, error) {
	vals := url.Values{}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		vals.Set("category", q.Category)
	}
	if q.AvailableOnly {
		vals.Set("available", "true")
	}

	var resp struct {
		Data       []map[string]any `json:"data"`
		Pagination *Pagination      `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/menu/items", vals, nil, &resp); err != nil {
		return MenuPage{}, err
	}

	items, err := normalize.List(resp.Data, func(m map[string]any) (catalog.MenuItem, error) {
		return normalize.MenuItem(m, c.mediaBase)
	})
	if err != nil {
		return MenuPage{}, fmt.Errorf("menu items: %w", err)
	}

	page := MenuPage{Items: items}
	if resp.Pagination != nil {
		page.Pagination = *resp.Pagination
	} else {
		page.Pagination = Pagination{Page: 1, Limit: len(items), Total: len(items), TotalPages: 1}
	}
	return page, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp []string
	if err := c.do(ctx, http.MethodGet, "/menu/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// --- Orders ---

// OrderLine is one line of a new order.
type OrderLine struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	Size       string    `json:"size,omitempty"`
	Customize  string    `json:"customize,omitempty"`
}

// PlaceOrderRequest is the body of POST /orders.
type PlaceOrderRequest struct {
	Items         []OrderLine `json:"items"`
	PaymentMethod string      `json:"payment_method"`
	Notes         string      `json:"notes,omitempty"`
}

// Orders fetches the caller's orders and buckets them locally.
func (c *Client) Orders(ctx context.Context) (tracking.Buckets, error) {
	var resp map[string][]map[string]any
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &resp); err != nil {
		return tracking.Buckets{}, err
	}
	var all []tracking.Order
	for _, bucket := range []string{"active", "completed", "cancelled"} {
		orders, err := normalize.List(resp[bucket], normalize.Order)
		if err != nil {
			return tracking.Buckets{}, fmt.Errorf("orders %s: %w", bucket, err)
		}
		all = append(all, orders...)
	}
	return tracking.Partition(all), nil
}

func (c *Client) Order(ctx context.Context, id uuid.UUID) (tracking.Order, error) {
	var resp map[string]any
	if err := c.do(ctx, http.MethodGet, "/orders/"+id.String(), nil, nil, &resp); err != nil {
		return tracking.Order{}, err
	}
	return normalize.Order(resp)
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (tracking.Order, error) {
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &resp); err != nil {
		return tracking.Order{}, err
	}
	return normalize.Order(resp)
}

func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID) (tracking.Order, error) {
	var resp map[string]any
	if err := c.do(ctx, http.MethodDelete, "/orders/"+id.String(), nil, nil, &resp); err != nil {
		return tracking.Order{}, err
	}
	return normalize.Order(resp)
}

// --- Catering ---

// ScheduleCateringRequest is the body of POST /catering/events.
type ScheduleCateringRequest struct {
	Name         string              `json:"name"`
	ClientName   string              `json:"client_name"`
	EventDate    string              `json:"event_date"`
	StartTime    string              `json:"start_time"`
	EndTime      string              `json:"end_time"`
	Location     string              `json:"location"`
	GuestCount   int32               `json:"guest_count"`
	ContactName  string              `json:"contact_name"`
	ContactPhone string              `json:"contact_phone"`
	Notes        string              `json:"notes,omitempty"`
	MenuItemIDs  []uuid.UUID         `json:"menu_item_ids"`
	Quantities   map[uuid.UUID]int32 `json:"quantities,omitempty"`
}

// CateringEvents returns every event the server reports for the caller,
// upcoming and past, without classifying them.
func (c *Client) CateringEvents(ctx context.Context) ([]catering.Event, error) {
	var resp map[string][]map[string]any
	if err := c.do(ctx, http.MethodGet, "/catering/events", nil, nil, &resp); err != nil {
		return nil, err
	}
	var all []catering.Event
	for _, bucket := range []string{"upcoming", "past"} {
		events, err := normalize.List(resp[bucket], normalize.Event)
		if err != nil {
			return nil, fmt.Errorf("catering %s: %w", bucket, err)
		}
		all = append(all, events...)
	}
	return all, nil
}

func (c *Client) ScheduleCatering(ctx context.Context, req ScheduleCateringRequest) (catering.Event, error) {
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/catering/events", nil, req, &resp); err != nil {
		return catering.Event{}, err
	}
	return normalize.Event(resp)
}

func (c *Client) CancelCatering(ctx context.Context, id uuid.UUID) (catering.Event, error) {
	var resp map[string]any
	path := "/catering/events/" + id.String() + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &resp); err != nil {
		return catering.Event{}, err
	}
	return normalize.Event(resp)
}

// --- Payments ---

// Initiation is the gateway redirect for a payment.
type Initiation struct {
	Reference   string          `json:"reference"`
	RedirectURL string          `json:"redirect_url"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
}

// InitiatePayment asks the server for a gateway redirect. target is ORDER or
// CATERING.
func (c *Client) InitiatePayment(ctx context.Context, target string, id uuid.UUID, method string) (Initiation, error) {
	body := map[string]string{
		"target":    target,
		"target_id": id.String(),
		"method":    method,
	}
	var resp Initiation
	if err := c.do(ctx, http.MethodPost, "/payments/initiate", nil, body, &resp); err != nil {
		return Initiation{}, err
	}
	return resp, nil
}

// --- Notifications ---

// Notifications returns the menu updates, newest first.
func (c *Client) Notifications(ctx context.Context) ([]notification.Notification, error) {
	var resp []map[string]any
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &resp); err != nil {
		return nil, err
	}
	ns, err := normalize.List(resp, normalize.Notification)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	return notification.MenuUpdates(ns), nil
}

// --- Loyalty & cart ---

func (c *Client) Points(ctx context.Context) (int32, error) {
	var resp struct {
		Points int32 `json:"points"`
	}
	if err := c.do(ctx, http.MethodGet, "/loyalty/points", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Points, nil
}

func (c *Client) Offers(ctx context.Context) ([]loyalty.Offer, error) {
	var resp []loyalty.Offer
	if err := c.do(ctx, http.MethodGet, "/loyalty/offers", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Redeem spends points on an offer. A 409 from the server is reported as
// loyalty.ErrInsufficientPoints.
func (c *Client) Redeem(ctx context.Context, offerID uuid.UUID) (loyalty.Redemption, error) {
	var resp loyalty.Redemption
	body := map[string]string{"offer_id": offerID.String()}
	err := c.do(ctx, http.MethodPost, "/loyalty/redeem", nil, body, &resp)
	if StatusOf(err) == http.StatusConflict {
		return loyalty.Redemption{}, fmt.Errorf("%w: %v", loyalty.ErrInsufficientPoints, err)
	}
	if err != nil {
		return loyalty.Redemption{}, err
	}
	return resp, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}
