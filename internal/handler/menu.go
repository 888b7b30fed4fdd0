package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/catalog"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/middleware"
	"github.com/sanaol/canteen/internal/notification"
	"github.com/sanaol/canteen/internal/service"
)

const maxImageBytes = 5 << 20

// MenuServicer defines the service methods needed by menu handlers.
// Satisfied by *service.MenuService; narrow interface for testability.
type MenuServicer interface {
	List(ctx context.Context, q service.MenuQuery) (service.MenuPage, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id uuid.UUID) (catalog.MenuItem, error)
	Create(ctx context.Context, req service.CreateMenuItemRequest) (catalog.MenuItem, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (catalog.MenuItem, error)
	UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (catalog.MenuItem, error)
	Notifications(ctx context.Context) ([]notification.Notification, error)
}

// MenuHandler handles menu browsing, admin menu management and the
// menu-update notification feed.
type MenuHandler struct {
	svc    MenuServicer
	logger *zap.Logger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(svc MenuServicer, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{svc: svc, logger: nopIfNil(logger)}
}

// RegisterRoutes registers menu endpoints. Expected to be mounted at /menu
// behind the Authenticate middleware; write endpoints are admin-only.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.List)
	r.Get("/items/{id}", h.Get)
	r.Get("/categories", h.Categories)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/items", h.Create)
		r.Patch("/items/{id}/availability", h.SetAvailability)
		r.Post("/items/{id}/image", h.UploadImage)
	})
}

// --- Request types ---

type createMenuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Available   *bool  `json:"available"`
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// --- Handlers ---

// List handles GET /menu/items?page=&limit=&category=&available=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	q := service.MenuQuery{Category: r.URL.Query().Get("category")}

	var err error
	if q.Page, err = intParam(r, "page"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	if q.Limit, err = intParam(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if v := r.URL.Query().Get("available"); v != "" {
		q.AvailableOnly, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid available flag")
			return
		}
	}

	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, "list menu items", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Categories handles GET /menu/categories.
func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		respondError(w, h.logger, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Get handles GET /menu/items/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "menu item")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create handles POST /menu/items.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	item, err := h.svc.Create(r.Context(), service.CreateMenuItemRequest{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Available:   available,
	})
	if err != nil {
		respondError(w, h.logger, "create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// SetAvailability handles PATCH /menu/items/{id}/availability.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "menu item")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Available == nil {
		writeError(w, http.StatusBadRequest, "available is required")
		return
	}

	item, err := h.svc.SetAvailability(r.Context(), id, *req.Available)
	if err != nil {
		respondError(w, h.logger, "set availability", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UploadImage handles POST /menu/items/{id}/image as multipart form data
// with the file in the "image" field.
func (h *MenuHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "menu item")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "image must be a multipart upload under 5MB")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	item, err := h.svc.UploadImage(r.Context(), id, header.Filename, contentType, file)
	if err != nil {
		respondError(w, h.logger, "upload menu image", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Notifications handles GET /notifications.
func (h *MenuHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.Notifications(r.Context())
	if err != nil {
		respondError(w, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
