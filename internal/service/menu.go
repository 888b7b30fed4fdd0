package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/notification"
	"github.com/sanaol/canteen/internal/storage"
)

const (
	defaultMenuLimit      = 20
	maxMenuLimit          = 100
	notificationFeedLimit = 50
)

// Errors returned by the menu service.
var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidPrice     = errors.New("price must be a non-negative number")
	ErrMenuItemName     = errors.New("name is required")
)

// MenuStore defines the DB methods needed by the menu service.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	CountMenuItems(ctx context.Context, arg database.CountMenuItemsParams) (int64, error)
	ListMenuCategories(ctx context.Context) ([]string, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	SetMenuItemImage(ctx context.Context, arg database.SetMenuItemImageParams) (database.MenuItem, error)
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
	ListNotifications(ctx context.Context, limit int32) ([]database.Notification, error)
}

// NewMenuStore creates a MenuStore from a DBTX (pool or tx).
type NewMenuStore func(db database.DBTX) MenuStore

// MenuQuery filters and pages the menu.
type MenuQuery struct {
	Page          int
	Limit         int
	Category      string
	AvailableOnly bool
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// MenuPage is one page of menu items.
type MenuPage struct {
	Items      []catalog.MenuItem `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// CreateMenuItemRequest is the input for adding a dish.
type CreateMenuItemRequest struct {
	Name        string
	Description string
	Category    string
	Price       string
	Available   bool
}

// MenuService manages the catalog and the menu-update feed.
type MenuService struct {
	pool     Pool
	newStore NewMenuStore
	images   storage.ImageStore
	logger   *zap.Logger
}

// NewMenuService creates a new MenuService. images may be nil, in which case
// uploads fail with storage.ErrDisabled.
func NewMenuService(pool Pool, newStore NewMenuStore, images storage.ImageStore, logger *zap.Logger) *MenuService {
	if images == nil {
		images = storage.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{pool: pool, newStore: newStore, images: images, logger: logger}
}

// List returns one page of the menu.
func (s *MenuService) List(ctx context.Context, q MenuQuery) (MenuPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultMenuLimit
	}
	if q.Limit > maxMenuLimit {
		q.Limit = maxMenuLimit
	}
	category := optionalText(strings.TrimSpace(q.Category))

	store := s.newStore(s.pool)
	rows, err := store.ListMenuItems(ctx, database.ListMenuItemsParams{
		Category:      category,
		AvailableOnly: q.AvailableOnly,
		Limit:         int32(q.Limit),
		Offset:        int32((q.Page - 1) * q.Limit),
	})
	if err != nil {
		return MenuPage{}, fmt.Errorf("list menu items: %w", err)
	}
	total, err := store.CountMenuItems(ctx, database.CountMenuItemsParams{
		Category:      category,
		AvailableOnly: q.AvailableOnly,
	})
	if err != nil {
		return MenuPage{}, fmt.Errorf("count menu items: %w", err)
	}

	items := make([]catalog.MenuItem, len(rows))
	for i, r := range rows {
		items[i] = MenuItemFromRow(r)
	}
	return MenuPage{
		Items: items,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      int(total),
			TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
	}, nil
}

// Categories lists the distinct menu categories.
func (s *MenuService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.newStore(s.pool).ListMenuCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]catalog.MenuItem, len(cats))
	for i, c := range cats {
		items[i] = catalog.MenuItem{Category: c}
	}
	out := catalog.Categories(items)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// Get loads one menu item.
func (s *MenuService) Get(ctx context.Context, id uuid.UUID) (catalog.MenuItem, error) {
	row, err := s.newStore(s.pool).GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.MenuItem{}, ErrMenuItemNotFound
		}
		return catalog.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return MenuItemFromRow(row), nil
}

// Create adds a dish and posts a "new" notification for it.
func (s *MenuService) Create(ctx context.Context, req CreateMenuItemRequest) (catalog.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalog.MenuItem{}, ErrMenuItemName
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		return catalog.MenuItem{}, ErrInvalidPrice
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	row, err := store.CreateMenuItem(ctx, database.CreateMenuItemParams{
		Name:        name,
		Description: optionalText(strings.TrimSpace(req.Description)),
		Category:    strings.TrimSpace(req.Category),
		Price:       decimalToNumeric(price),
		IsAvailable: req.Available,
	})
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}

	if req.Available {
		if err := s.notify(ctx, store, enum.NotificationTypeNew, row, "New on the menu", row.Name+" is now available."); err != nil {
			return catalog.MenuItem{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return catalog.MenuItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return MenuItemFromRow(row), nil
}

// SetAvailability flips a dish in or out of stock. Running out posts a
// "sold" notification; coming back posts a "new" one. No-op changes post
// nothing.
func (s *MenuService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (catalog.MenuItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	before, err := store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.MenuItem{}, ErrMenuItemNotFound
		}
		return catalog.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}

	row, err := store.SetMenuItemAvailability(ctx, database.SetMenuItemAvailabilityParams{ID: id, IsAvailable: available})
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("set availability: %w", err)
	}

	if before.IsAvailable != available {
		var err error
		if available {
			err = s.notify(ctx, store, enum.NotificationTypeNew, row, "Back on the menu", row.Name+" is available again.")
		} else {
			err = s.notify(ctx, store, enum.NotificationTypeSold, row, "Sold out", row.Name+" is sold out for today.")
		}
		if err != nil {
			return catalog.MenuItem{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return catalog.MenuItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return MenuItemFromRow(row), nil
}

func (s *MenuService) notify(ctx context.Context, store MenuStore, kind string, item database.MenuItem, title, message string) error {
	_, err := store.CreateNotification(ctx, database.CreateNotificationParams{
		Type:       kind,
		MenuItemID: pgtype.UUID{Bytes: item.ID, Valid: true},
		Title:      title,
		Message:    message,
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// UploadImage stores a dish photo and points the menu item at it.
func (s *MenuService) UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (catalog.MenuItem, error) {
	store := s.newStore(s.pool)
	if _, err := store.GetMenuItem(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.MenuItem{}, ErrMenuItemNotFound
		}
		return catalog.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}

	key := path.Join("menu", id.String()+strings.ToLower(path.Ext(filename)))
	url, err := s.images.Put(ctx, key, contentType, body)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("store image: %w", err)
	}

	row, err := store.SetMenuItemImage(ctx, database.SetMenuItemImageParams{ID: id, ImageUrl: optionalText(url)})
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("set menu item image: %w", err)
	}
	s.logger.Info("menu image uploaded", zap.Stringer("menu_item_id", id), zap.String("url", url))
	return MenuItemFromRow(row), nil
}

// Notifications returns the latest menu updates, newest first.
func (s *MenuService) Notifications(ctx context.Context) ([]notification.Notification, error) {
	rows, err := s.newStore(s.pool).ListNotifications(ctx, notificationFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	ns := make([]notification.Notification, len(rows))
	for i, r := range rows {
		ns[i] = NotificationFromRow(r)
	}
	return notification.MenuUpdates(ns), nil
}
