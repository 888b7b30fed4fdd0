//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanaol/canteen/internal/config"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/router"
	"github.com/sanaol/canteen/internal/ws"
)

// TestIntegrationFlow exercises the full API lifecycle against a real PostgreSQL database.
func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub(nil)
	go hub.Run(ctx)
	gw := gateway.NewRedirect("https://pay.test", "integration-gateway-secret")

	r := router.New(cfg, queries, pool, hub, router.Options{Gateway: gw})
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap an admin (manual DB insert) and sign in ---
	createUser(t, ctx, queries, "admin@test.edu", "Canteen Admin", "admin")
	adminToken := login(t, server, "admin@test.edu", "password123")

	// --- 2. Student and faculty register through the API ---
	studentToken, studentID := register(t, server, "student@test.edu", "Maria Santos", "")
	facultyToken, _ := register(t, server, "faculty@test.edu", "Prof. Reyes", "faculty")

	// --- 3. Admin builds the menu ---
	adobo := createMenuItem(t, server, adminToken, "Chicken Adobo", "Rice Meals", "45.00")
	rice := createMenuItem(t, server, adminToken, "Rice", "Sides", "15.00")
	if status, _ := call(t, server, "POST", "/menu/items", map[string]interface{}{
		"name": "Sneaky Dish", "category": "Rice Meals", "price": "10",
	}, studentToken); status != http.StatusForbidden {
		t.Fatalf("student creating menu item: got %d, want 403", status)
	}

	// --- 4. Student orders; line items are priced from the menu ---
	order := mustCall(t, server, "POST", "/orders", map[string]interface{}{
		"payment_method": "GCASH",
		"items": []map[string]interface{}{
			{"menu_item_id": adobo, "quantity": 2},
			{"menu_item_id": rice, "quantity": 1},
		},
	}, studentToken)
	orderID := order["id"].(string)
	if order["total"] != "105" || order["status"] != "PENDING" {
		t.Fatalf("new order: total %v status %v, want 105 PENDING", order["total"], order["status"])
	}

	// --- 5. Kitchen advances the order; backwards moves are refused ---
	if status, _ := call(t, server, "PATCH", "/orders/"+orderID+"/status", map[string]string{"status": "ACCEPTED"}, studentToken); status != http.StatusForbidden {
		t.Fatalf("student advancing order: got %d, want 403", status)
	}
	accepted := mustCall(t, server, "PATCH", "/orders/"+orderID+"/status", map[string]string{"status": "ACCEPTED"}, adminToken)
	if progress := accepted["progress"].(map[string]interface{}); progress["index"] != float64(1) {
		t.Fatalf("accepted progress: got %v", progress)
	}
	if status, _ := call(t, server, "PATCH", "/orders/"+orderID+"/status", map[string]string{"status": "PENDING"}, adminToken); status != http.StatusConflict {
		t.Fatalf("backwards transition: got %d, want 409", status)
	}

	// --- 6. Student pays through the gateway; the callback is idempotent ---
	confirmation := initiateAndSign(t, server, studentToken, "ORDER", orderID)
	paid := mustCall(t, server, "POST", "/payments/confirm", confirmation, "")
	if paid["payment_status"] != "PAID" {
		t.Fatalf("order payment_status: got %v, want PAID", paid["payment_status"])
	}
	replayed := mustCall(t, server, "POST", "/payments/confirm", confirmation, "")
	if replayed["payment_status"] != "PAID" {
		t.Fatalf("replayed confirmation: got %v", replayed["payment_status"])
	}

	// --- 7. Faculty books catering: 50% down payment, then settles the rest ---
	if status, _ := call(t, server, "POST", "/catering/events", cateringBody(adobo), studentToken); status != http.StatusForbidden {
		t.Fatalf("student scheduling catering: got %d, want 403", status)
	}
	event := mustCall(t, server, "POST", "/catering/events", cateringBody(adobo), facultyToken)
	eventID := event["id"].(string)
	if event["total_price"] != "900" || event["paid_amount"] != "450" || event["status"] != "PENDING_PAYMENT" {
		t.Fatalf("new event: total %v paid %v status %v", event["total_price"], event["paid_amount"], event["status"])
	}

	settle := initiateAndSign(t, server, facultyToken, "CATERING", eventID)
	settled := mustCall(t, server, "POST", "/payments/confirm", settle, "")
	if settled["message"] != "payment recorded, event confirmed" {
		t.Fatalf("settle message: got %v", settled["message"])
	}
	again := mustCall(t, server, "POST", "/payments/confirm", settle, "")
	if again["message"] != "event is already fully paid" {
		t.Fatalf("replayed settle message: got %v", again["message"])
	}
	if ev := again["event"].(map[string]interface{}); ev["status"] != "CONFIRMED" || ev["remaining_balance"] != "0" {
		t.Fatalf("settled event: %v", ev)
	}

	history := mustCallList(t, server, "/payments/catering/"+eventID, adminToken)
	if len(history) != 2 {
		t.Fatalf("catering payments: got %d, want down payment + remaining", len(history))
	}

	// --- 8. Loyalty: redeem once, then run out of points ---
	offer, err := queries.CreateOffer(ctx, database.CreateOfferParams{
		Title:       "Free Iced Tea",
		Description: pgtype.Text{String: "One regular iced tea", Valid: true},
		Points:      100,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if _, err := queries.AddUserPoints(ctx, database.AddUserPointsParams{ID: studentID, Points: 150}); err != nil {
		t.Fatalf("add points: %v", err)
	}

	redeemed := mustCall(t, server, "POST", "/loyalty/redeem", map[string]string{"offer_id": offer.ID.String()}, studentToken)
	if redeemed["remaining_points"] != float64(50) {
		t.Fatalf("remaining points: got %v, want 50", redeemed["remaining_points"])
	}
	status, rejected := call(t, server, "POST", "/loyalty/redeem", map[string]string{"offer_id": offer.ID.String()}, studentToken)
	if status != http.StatusConflict || rejected["remaining_points"] != float64(50) {
		t.Fatalf("second redemption: status %d body %v", status, rejected)
	}

	// --- 9. Admin hires a cook with a login; the cook punches in and asks for leave ---
	if status, _ := call(t, server, "GET", "/employees", nil, studentToken); status != http.StatusForbidden {
		t.Fatalf("student listing employees: got %d, want 403", status)
	}
	cook := mustCall(t, server, "POST", "/employees", map[string]string{
		"name": "Lito Cruz", "position": "Cook", "hourly_rate": "80", "email": "cook@test.edu", "password": "cookpass123",
	}, adminToken)
	cookID := cook["id"].(string)
	if cook["hourly_rate"] != "80.00" || cook["user_id"] == nil {
		t.Fatalf("new employee: %v", cook)
	}
	if status, _ := call(t, server, "POST", "/employees", map[string]string{
		"name": "Duplicate", "email": "cook@test.edu", "password": "cookpass123",
	}, adminToken); status != http.StatusConflict {
		t.Fatalf("duplicate login email: got %d, want 409", status)
	}

	mustCall(t, server, "POST", "/schedule", map[string]string{
		"employee_id": cookID, "day": "monday", "start_time": "06:00", "end_time": "14:00",
	}, adminToken)
	if status, _ := call(t, server, "POST", "/schedule", map[string]string{
		"employee_id": cookID, "day": "Tuesday", "start_time": "14:00", "end_time": "06:00",
	}, adminToken); status != http.StatusBadRequest {
		t.Fatalf("reversed shift: got %d, want 400", status)
	}

	cookToken := login(t, server, "cook@test.edu", "cookpass123")
	if shifts := mustCallList(t, server, "/schedule", cookToken); len(shifts) != 1 || shifts[0]["day"] != "Monday" {
		t.Fatalf("cook schedule: %v", shifts)
	}
	mustCall(t, server, "POST", "/attendance", map[string]string{"date": "2026-03-02", "check_in": "05:58"}, cookToken)
	punch := mustCall(t, server, "POST", "/attendance", map[string]string{"date": "2026-03-02", "check_in": "07:00", "check_out": "14:05"}, cookToken)
	if punch["check_in"] != "05:58" || punch["check_out"] != "14:05" || punch["status"] != "present" {
		t.Fatalf("cook attendance: %v", punch)
	}

	leave := mustCall(t, server, "POST", "/leaves", map[string]string{
		"start_date": "2026-03-09", "end_date": "2026-03-10", "type": "sick", "status": "approved",
	}, cookToken)
	if leave["status"] != "pending" {
		t.Fatalf("staff leave status: got %v, want pending", leave["status"])
	}
	if status, _ := call(t, server, "GET", "/leaves", nil, cookToken); status != http.StatusForbidden {
		t.Fatalf("staff listing leaves: got %d, want 403", status)
	}
	decided := mustCall(t, server, "PATCH", "/leaves/"+leave["id"].(string), map[string]string{"status": "approved"}, adminToken)
	if decided["decided_by"] != "admin@test.edu" || decided["decided_at"] == nil {
		t.Fatalf("leave decision: %v", decided)
	}

	t.Logf("Integration test passed: container=%s, order=%s, event=%s",
		pgContainer.GetContainerID(), orderID, eventID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("canteen_test"),
		tcpostgres.WithUsername("canteen"),
		tcpostgres.WithPassword("canteen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createUser(t *testing.T, ctx context.Context, q *database.Queries, email, name, role string) uuid.UUID {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       name,
		Role:           role,
	})
	if err != nil {
		t.Fatalf("create %s user: %v", role, err)
	}
	return u.ID
}

// --- API call helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := mustCall(t, server, "POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func register(t *testing.T, server *httptest.Server, email, name, role string) (string, uuid.UUID) {
	t.Helper()
	resp := mustCall(t, server, "POST", "/auth/register", map[string]string{
		"email":     email,
		"password":  "password123",
		"full_name": name,
		"role":      role,
	}, "")
	user := resp["user"].(map[string]interface{})
	return resp["access_token"].(string), uuid.MustParse(user["id"].(string))
}

func createMenuItem(t *testing.T, server *httptest.Server, token, name, category, price string) string {
	t.Helper()
	resp := mustCall(t, server, "POST", "/menu/items", map[string]interface{}{
		"name":     name,
		"category": category,
		"price":    price,
	}, token)
	return resp["id"].(string)
}

func cateringBody(menuItemID string) map[string]interface{} {
	return map[string]interface{}{
		"name":           "Department Planning Lunch",
		"client_name":    "Prof. Reyes",
		"event_date":     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		"start_time":     "11:00",
		"end_time":       "13:00",
		"location":       "Faculty Lounge",
		"guest_count":    20,
		"contact_name":   "Prof. Reyes",
		"contact_phone":  "09171234567",
		"menu_item_ids":  []string{menuItemID},
		"quantities":     map[string]int{menuItemID: 20},
		"payment_method": "GCASH",
	}
}

// initiateAndSign starts a payment and returns the confirmation the provider
// would post back, built from the signed redirect URL.
func initiateAndSign(t *testing.T, server *httptest.Server, token, target, id string) map[string]string {
	t.Helper()
	started := mustCall(t, server, "POST", "/payments/initiate", map[string]string{
		"target":    target,
		"target_id": id,
		"method":    "GCASH",
	}, token)

	u, err := url.Parse(started["redirect_url"].(string))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	q := u.Query()
	return map[string]string{
		"reference": q.Get("reference"),
		"target":    q.Get("target"),
		"target_id": q.Get("target_id"),
		"amount":    q.Get("amount"),
		"method":    q.Get("method"),
		"signature": q.Get("sig"),
	}
}

// --- HTTP helpers ---

func newRequest(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func call(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(newRequest(t, server, method, path, body, token))
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, result
}

func mustCall(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	status, result := call(t, server, method, path, body, token)
	if status < 200 || status >= 300 {
		t.Fatalf("%s %s: status %d, body: %v", method, path, status, result)
	}
	return result
}

func mustCallList(t *testing.T, server *httptest.Server, path, token string) []map[string]interface{} {
	t.Helper()
	resp, err := http.DefaultClient.Do(newRequest(t, server, "GET", path, nil, token))
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
