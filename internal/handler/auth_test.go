package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanaol/canteen/internal/auth"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/handler"
)

// --- Mock store ---

type mockAuthStore struct {
	userByEmail map[string]database.User
	userByID    map[uuid.UUID]database.User
	created     []database.CreateUserParams
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		userByEmail: make(map[string]database.User),
		userByID:    make(map[uuid.UUID]database.User),
	}
}

func (m *mockAuthStore) addUser(u database.User) {
	m.userByEmail[u.Email] = u
	m.userByID[u.ID] = u
}

func (m *mockAuthStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	if _, ok := m.userByEmail[arg.Email]; ok {
		return database.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	m.created = append(m.created, arg)
	u := database.User{
		ID:             uuid.New(),
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Role:           arg.Role,
		IsActive:       true,
	}
	m.addUser(u)
	return u, nil
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	u, ok := m.userByEmail[email]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.userByID[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func makeTestUser(t *testing.T) database.User {
	t.Helper()
	return database.User{
		ID:             uuid.New(),
		Email:          "maria@campus.edu",
		HashedPassword: hashPassword(t, "correct-password"),
		FullName:       "Maria Santos",
		Role:           enum.UserRoleStudent,
		CreditPoints:   120,
		IsActive:       true,
	}
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testSecret, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Login tests ---

func TestLogin_ValidCredentials(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	rr := postJSON(t, setupAuthRouter(store), "/auth/login", map[string]string{
		"email":    "maria@campus.edu",
		"password": "correct-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	access, _ := resp["access_token"].(string)
	if access == "" {
		t.Fatal("expected non-empty access_token")
	}
	if resp["refresh_token"] == nil || resp["refresh_token"] == "" {
		t.Error("expected non-empty refresh_token")
	}

	claims, err := auth.ValidateToken(testSecret, access)
	if err != nil {
		t.Fatalf("access token should validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enum.UserRoleStudent {
		t.Errorf("claims: got %+v", claims)
	}

	userResp, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatal("expected user object in response")
	}
	if userResp["full_name"] != "Maria Santos" {
		t.Errorf("full_name: got %v", userResp["full_name"])
	}
	if userResp["credit_points"] != float64(120) {
		t.Errorf("credit_points: got %v", userResp["credit_points"])
	}
}

func TestLogin_Rejected(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t))
	router := setupAuthRouter(store)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"email": "maria@campus.edu", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "nobody@campus.edu", "password": "x"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "maria@campus.edu"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, router, "/auth/login", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// --- Register tests ---

func TestRegister_CreatesStudentByDefault(t *testing.T) {
	store := newMockAuthStore()

	rr := postJSON(t, setupAuthRouter(store), "/auth/register", map[string]string{
		"email":     "juan@campus.edu",
		"password":  "longenough",
		"full_name": "Juan Dela Cruz",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(store.created))
	}
	created := store.created[0]
	if created.Role != enum.UserRoleStudent {
		t.Errorf("role: got %q, want student", created.Role)
	}
	if created.HashedPassword == "longenough" {
		t.Error("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.HashedPassword), []byte("longenough")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	store := newMockAuthStore()
	store.addUser(makeTestUser(t))
	router := setupAuthRouter(store)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"short password", map[string]string{"email": "a@campus.edu", "password": "short", "full_name": "A"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "not-an-email", "password": "longenough", "full_name": "A"}, http.StatusBadRequest},
		{"staff role refused", map[string]string{"email": "b@campus.edu", "password": "longenough", "full_name": "B", "role": "admin"}, http.StatusBadRequest},
		{"duplicate email", map[string]string{"email": "maria@campus.edu", "password": "longenough", "full_name": "M"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, router, "/auth/register", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

// --- Refresh tests ---

func TestRefresh_ValidToken(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, setupAuthRouter(store), "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["access_token"] == "" {
		t.Error("expected non-empty access_token")
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	access, _ := auth.GenerateToken(testSecret, user.ID, user.Role)
	rr := postJSON(t, setupAuthRouter(store), "/auth/refresh", map[string]string{
		"refresh_token": access,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_UnknownUser(t *testing.T) {
	refreshToken, _ := auth.GenerateRefreshToken(testSecret, uuid.New())

	rr := postJSON(t, setupAuthRouter(newMockAuthStore()), "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Me ---

func TestMe(t *testing.T) {
	store := newMockAuthStore()
	user := makeTestUser(t)
	store.addUser(user)

	h := handler.NewAuthHandler(store, testSecret, nil)
	router := authedRouter("/auth", func(r chi.Router) { r.Get("/me", h.Me) })

	rr := doAuthRequest(t, router, "GET", "/auth/me", nil, &auth.Claims{UserID: user.ID, Role: user.Role})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["email"] != user.Email {
		t.Errorf("email: got %v", resp["email"])
	}
}
