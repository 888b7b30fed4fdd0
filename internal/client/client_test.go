package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanaol/canteen/internal/client"
	"github.com/sanaol/canteen/internal/loyalty"
)

func newClient(srv *httptest.Server) *client.Client {
	return client.New(srv.URL, client.WithInitialDelay(time.Millisecond))
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"points": 42})
	}))
	defer srv.Close()

	pts, err := newClient(srv).Points(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(42), pts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_RetryLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
	}))
	defer srv.Close()

	_, err := newClient(srv).WithRetries(2).Points(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, client.StatusOf(err))
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")

	calls.Store(0)
	_, err = newClient(srv).WithRetries(0).Points(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_WritesAreSentOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"remaining_points": 100})
	}))
	defer srv.Close()

	_, err := newClient(srv).WithRetries(3).Redeem(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, client.StatusOf(err))
	assert.Equal(t, int32(1), calls.Load(), "POST /loyalty/redeem must not be replayed")
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "missing required fields: location"})
	}))
	defer srv.Close()

	_, err := newClient(srv).WithRetries(3).ScheduleCatering(context.Background(), client.ScheduleCateringRequest{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "missing required fields: location", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, client.WithInitialDelay(time.Millisecond)).Points(context.Background())
	assert.ErrorIs(t, err, client.ErrNetwork)
}

func TestDo_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	_, err := newClient(srv).WithToken("tok-123").Notifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)
}

func TestRedeem_ConflictIsInsufficientPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "not enough credit points"})
	}))
	defer srv.Close()

	_, err := newClient(srv).Redeem(context.Background(), uuid.New())
	assert.ErrorIs(t, err, loyalty.ErrInsufficientPoints)
}

func TestMenuItems_NormalizesAndPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/menu/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Drinks", r.URL.Query().Get("category"))
		w.Write([]byte(`{
			"data": [{"id": "` + uuid.NewString() + `", "name": "Iced Tea", "unit_price": "25", "category": {"name": "Drinks"}, "image_url": "/media/tea.png"}],
			"pagination": {"page": 2, "limit": 1, "total": 5, "totalPages": 5}
		}`))
	}))
	defer srv.Close()

	page, err := newClient(srv).MenuItems(context.Background(), client.MenuQuery{Page: 2, Category: "Drinks"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "25.00", page.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Drinks", page.Items[0].Category)
	assert.Equal(t, srv.URL+"/media/tea.png", page.Items[0].Image)
	assert.Equal(t, 5, page.Pagination.TotalPages)
}

func TestOrders_Partitioned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"active": [{"order_number": "A1", "status": "READY", "items": [{"name": "x", "price": 10, "quantity": 2}]}],
			"completed": [{"order_number": "A2", "status": "COMPLETED"}],
			"cancelled": []
		}`))
	}))
	defer srv.Close()

	b, err := newClient(srv).Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Active, 1)
	assert.Equal(t, 3, b.Active[0].Progress.Index)
	assert.Equal(t, "20.00", b.Active[0].Total.StringFixed(2))
	assert.Len(t, b.Completed, 1)
	assert.Empty(t, b.Cancelled)
}

func TestLogin(t *testing.T) {
	id := uuid.NewString()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "a",
			"refresh_token": "r",
			"user":          map[string]string{"id": id, "full_name": "Ana", "email": "ana@school.edu", "role": "faculty"},
		})
	}))
	defer srv.Close()

	res, err := newClient(srv).Login(context.Background(), "ana@school.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a", res.AccessToken)
	assert.Equal(t, "faculty", res.Profile.Role)
	assert.Equal(t, id, res.Profile.UserID)

	_, err = newClient(srv).Login(context.Background(), "ana@school.edu", "wrong")
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
	assert.False(t, errors.Is(err, client.ErrNetwork))
}
