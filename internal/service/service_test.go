package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/storage"
	"github.com/mmynk/treasurer/internal/storage/sqlite"
)

// testClock is a settable time source shared by the server under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	server *httptest.Server
	clock  *testClock
	tokens *auth.JWTManager
}

// setupTestServer starts the full router over a temporary SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")

	clock := &testClock{t: time.Now()}
	env := newTestEnv(t, store, clock)
	t.Cleanup(func() { store.Close() })
	return env
}

func newTestEnv(t *testing.T, store storage.Store, clock *testClock) *testEnv {
	t.Helper()

	tokens := auth.NewJWTManager("test-secret", time.Hour, auth.WithClock(clock.Now))
	handler := NewRouter(Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store, bcrypt.MinCost),
		Tokens:        tokens,
		Metrics:       middleware.NewMetrics(),
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &testEnv{server: server, clock: clock, tokens: tokens}
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (r response) message(t *testing.T) string {
	t.Helper()
	var m struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(r.body, &m), "body: %s", r.body)
	return m.Message
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: raw, header: resp.Header}
}

// login registers a user with the given role and returns a token for it.
func (e *testEnv) login(t *testing.T, username, role string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": username, "password": "pw-" + username, "role": role,
	})
	require.Equal(t, http.StatusCreated, resp.status, "register: %s", resp.body)

	resp = e.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": "pw-" + username,
	})
	require.Equal(t, http.StatusOK, resp.status, "login: %s", resp.body)

	var out struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &out))
	assert.Equal(t, "Login successful", out.Message)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "OK", string(resp.body))
}

func TestRegister(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "treasurer", "password": "s3cret", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, resp.status)

	var created struct {
		Message string `json:"message"`
		UserID  int64  `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &created))
	assert.Equal(t, "User registered successfully", created.Message)
	assert.NotZero(t, created.UserID)
	assert.NotContains(t, string(resp.body), "password")

	t.Run("same username with different fields conflicts", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/register", "", map[string]string{
			"username": "treasurer", "password": "different", "role": "member",
		})
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "User already exists", resp.message(t))
	})

	t.Run("missing password", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/register", "", map[string]string{"username": "nopw"})
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Username and password are required", resp.message(t))
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/register", "", map[string]string{
			"username": "verbose", "password": strings.Repeat("p", 73),
		})
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Password must be at most 72 bytes", resp.message(t))
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/register", "", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Invalid request body", resp.message(t))
	})
}

func TestConcurrentRegistration(t *testing.T) {
	env := setupTestServer(t)

	const attempts = 10
	statuses := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := strings.NewReader(`{"username":"contended","password":"pw","role":"member"}`)
			resp, err := http.Post(env.server.URL+"/register", "application/json", body)
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
		default:
			t.Errorf("unexpected status %d", s)
		}
	}
	assert.Equal(t, 1, created)
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t, "alice", models.RoleMember)

	claims, err := env.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, claims.Role)
	assert.NotZero(t, claims.UserID)
	assert.WithinDuration(t, env.clock.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Second)

	wrongPassword := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	unknownUser := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": "mallory", "password": "pw-alice",
	})

	assert.Equal(t, http.StatusBadRequest, wrongPassword.status)
	assert.Equal(t, wrongPassword.status, unknownUser.status)
	assert.Equal(t, wrongPassword.body, unknownUser.body, "responses must be byte-identical")
	assert.Equal(t, wrongPassword.header.Get("Content-Type"), unknownUser.header.Get("Content-Type"))
	assert.Equal(t, "Invalid credentials", wrongPassword.message(t))
}

func TestMe(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t, "bob", "auditor")

	resp := env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, resp.status)

	var me struct {
		UserID int64  `json:"userId"`
		Role   string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &me))
	assert.NotZero(t, me.UserID)
	assert.Equal(t, "auditor", me.Role)
}

var protectedRoutes = []struct {
	method string
	path   string
	body   any
}{
	{http.MethodGet, "/me", nil},
	{http.MethodGet, "/events", nil},
	{http.MethodGet, "/events/summary", nil},
	{http.MethodGet, "/transactions", nil},
	{http.MethodPost, "/events", map[string]any{"name": "x"}},
	{http.MethodPost, "/transactions", map[string]any{"event_name": "x", "amount": 1, "date": "2024-01-01"}},
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestServer(t)

	for _, rt := range protectedRoutes {
		resp := env.do(t, rt.method, rt.path, "", rt.body)
		assert.Equal(t, http.StatusUnauthorized, resp.status, "%s %s", rt.method, rt.path)
		assert.Equal(t, "Unauthorized", resp.message(t))
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t, "root", models.RoleAdmin)

	env.clock.Advance(time.Hour + time.Second)

	for _, rt := range protectedRoutes {
		resp := env.do(t, rt.method, rt.path, token, rt.body)
		assert.Equal(t, http.StatusUnauthorized, resp.status, "%s %s", rt.method, rt.path)
		assert.Equal(t, "Invalid token", resp.message(t))
	}
}

func TestMemberForbiddenOnAdminRoutes(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t, "member", models.RoleMember)

	adminOnly := []struct {
		path string
		body any
	}{
		{"/events", map[string]any{"name": "Gala", "budget_allocated": 10}},
		{"/transactions", map[string]any{"event_name": "Gala", "amount": 1, "date": "2024-01-01"}},
		{"/transactions", map[string]any{}},
	}
	for _, rt := range adminOnly {
		resp := env.do(t, http.MethodPost, rt.path, token, rt.body)
		assert.Equal(t, http.StatusForbidden, resp.status, "POST %s", rt.path)
		assert.Equal(t, "Access denied", resp.message(t))
	}

	resp := env.do(t, http.MethodGet, "/events", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `[]`, string(resp.body), "nothing was written")
}

func TestEvents(t *testing.T) {
	env := setupTestServer(t)
	admin := env.login(t, "admin", models.RoleAdmin)
	member := env.login(t, "member", models.RoleMember)

	resp := env.do(t, http.MethodPost, "/events", admin, map[string]any{
		"name":             "Spring Gala",
		"budget_allocated": 1500.5,
		"amount_spent":     "200",
		"status":           "planned",
	})
	require.Equal(t, http.StatusCreated, resp.status, "%s", resp.body)

	var created struct {
		Message string `json:"message"`
		EventID int64  `json:"eventId"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &created))
	assert.Equal(t, "Event added successfully", created.Message)
	require.NotZero(t, created.EventID)

	resp = env.do(t, http.MethodGet, "/events", member, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `[{
		"id": `+jsonInt(created.EventID)+`,
		"name": "Spring Gala",
		"budget_allocated": "1500.5",
		"amount_spent": "200",
		"status": "planned"
	}]`, string(resp.body))

	t.Run("missing amounts default to zero", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/events", admin, map[string]any{"name": "Bake sale"})
		require.Equal(t, http.StatusCreated, resp.status)

		resp = env.do(t, http.MethodGet, "/events", admin, nil)
		var events []models.Event
		require.NoError(t, json.Unmarshal(resp.body, &events))
		require.Len(t, events, 2)
		assert.True(t, events[1].BudgetAllocated.IsZero())
		assert.Equal(t, "", events[1].Status)
	})

	t.Run("negative budget is accepted", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/events", admin, map[string]any{"name": "Refund", "budget_allocated": -20})
		assert.Equal(t, http.StatusCreated, resp.status)
	})

	t.Run("missing name", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/events", admin, map[string]any{"budget_allocated": 5})
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Event name is required", resp.message(t))
	})

	t.Run("non-numeric budget", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/events", admin, map[string]any{"name": "Bad", "budget_allocated": "lots"})
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Invalid request body", resp.message(t))
	})

	t.Run("amounts outside DECIMAL(12,2)", func(t *testing.T) {
		bodies := []string{
			`{"name":"Huge","budget_allocated":1e2000000}`,
			`{"name":"Huge","amount_spent":"10000000000"}`,
			`{"name":"Precise","budget_allocated":1.005}`,
			`{"name":"Tiny","amount_spent":1e-2000000}`,
		}
		for _, body := range bodies {
			resp := env.do(t, http.MethodPost, "/events", admin, body)
			assert.Equal(t, http.StatusBadRequest, resp.status, body)
			assert.Equal(t, "Invalid request body", resp.message(t))
		}

		resp := env.do(t, http.MethodGet, "/events", admin, nil)
		var events []models.Event
		require.NoError(t, json.Unmarshal(resp.body, &events))
		for _, e := range events {
			assert.NotContains(t, []string{"Huge", "Precise", "Tiny"}, e.Name)
		}
	})
}

func TestTransactions(t *testing.T) {
	env := setupTestServer(t)
	admin := env.login(t, "admin", models.RoleAdmin)
	member := env.login(t, "member", models.RoleMember)

	resp := env.do(t, http.MethodPost, "/transactions", admin, map[string]any{
		"event_name": "Spring Gala",
		"amount":     "42.10",
		"date":       "2024-04-01T15:04:05Z",
	})
	require.Equal(t, http.StatusCreated, resp.status, "%s", resp.body)

	var created struct {
		Message       string `json:"message"`
		TransactionID int64  `json:"transactionId"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &created))
	assert.Equal(t, "Transaction added successfully", created.Message)
	require.NotZero(t, created.TransactionID)

	resp = env.do(t, http.MethodGet, "/transactions", member, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `[{
		"id": `+jsonInt(created.TransactionID)+`,
		"event_name": "Spring Gala",
		"amount": "42.1",
		"date": "2024-04-01"
	}]`, string(resp.body))

	rejected := []struct {
		name string
		body map[string]any
		msg  string
	}{
		{"missing date", map[string]any{"event_name": "Gala", "amount": 5}, "All fields are required"},
		{"missing amount", map[string]any{"event_name": "Gala", "date": "2024-01-01"}, "All fields are required"},
		{"null amount", map[string]any{"event_name": "Gala", "amount": nil, "date": "2024-01-01"}, "All fields are required"},
		{"missing event", map[string]any{"amount": 5, "date": "2024-01-01"}, "All fields are required"},
		{"bad date", map[string]any{"event_name": "Gala", "amount": 5, "date": "01/02/2024"}, "Date must be in YYYY-MM-DD format"},
		{"oversized amount", map[string]any{"event_name": "Gala", "amount": "1e2000000", "date": "2024-01-01"}, "Invalid request body"},
		{"too many decimal places", map[string]any{"event_name": "Gala", "amount": "0.001", "date": "2024-01-01"}, "Invalid request body"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/transactions", admin, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.status)
			assert.Equal(t, tt.msg, resp.message(t))
		})
	}

	resp = env.do(t, http.MethodGet, "/transactions", admin, nil)
	var txns []models.Transaction
	require.NoError(t, json.Unmarshal(resp.body, &txns))
	assert.Len(t, txns, 1, "rejected requests must not create rows")
}

func TestEventSummary(t *testing.T) {
	env := setupTestServer(t)
	admin := env.login(t, "admin", models.RoleAdmin)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/events", admin, map[string]any{
		"name": "Gala", "budget_allocated": 100, "amount_spent": 20,
	}).status)
	for _, amt := range []string{"30", "60"} {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/transactions", admin, map[string]any{
			"event_name": "Gala", "amount": amt, "date": "2024-05-01",
		}).status)
	}

	resp := env.do(t, http.MethodGet, "/events/summary", admin, nil)
	require.Equal(t, http.StatusOK, resp.status)

	var summaries []struct {
		Name              string `json:"name"`
		TransactionsTotal string `json:"transactions_total"`
		TransactionCount  int    `json:"transaction_count"`
		Remaining         string `json:"remaining"`
		OverBudget        bool   `json:"over_budget"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Gala", summaries[0].Name)
	assert.Equal(t, "90", summaries[0].TransactionsTotal)
	assert.Equal(t, 2, summaries[0].TransactionCount)
	assert.Equal(t, "-10", summaries[0].Remaining)
	assert.True(t, summaries[0].OverBudget)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodGet, "/health", "", nil)

	resp := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `treasurer_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	env := setupTestServer(t)
	resp := env.do(t, http.MethodGet, "/budgets", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "Not found", resp.message(t))
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t)
	resp := env.do(t, http.MethodGet, "/register", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.status)
	assert.Equal(t, "Method not allowed", resp.message(t))
}

// brokenStore fails every call after construction.
type brokenStore struct{}

var errBroken = errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")

func (brokenStore) CreateUser(context.Context, *models.User) error { return errBroken }
func (brokenStore) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, errBroken
}
func (brokenStore) CreateEvent(context.Context, *models.Event) error { return errBroken }
func (brokenStore) ListEvents(context.Context) ([]*models.Event, error) {
	return nil, errBroken
}
func (brokenStore) CreateTransaction(context.Context, *models.Transaction) error { return errBroken }
func (brokenStore) ListTransactions(context.Context) ([]*models.Transaction, error) {
	return nil, errBroken
}
func (brokenStore) Close() error { return nil }

func TestStoreFailuresAreGeneric(t *testing.T) {
	clock := &testClock{t: time.Now()}
	env := newTestEnv(t, brokenStore{}, clock)

	admin, err := env.tokens.Generate(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		method, path, token string
		body                any
		wantMsg             string
	}{
		{http.MethodPost, "/register", "", map[string]string{"username": "a", "password": "b"}, "Internal Server Error"},
		{http.MethodPost, "/login", "", map[string]string{"username": "a", "password": "b"}, "Internal Server Error"},
		{http.MethodGet, "/events", admin, nil, "Internal Server Error"},
		{http.MethodGet, "/events/summary", admin, nil, "Internal Server Error"},
		{http.MethodGet, "/transactions", admin, nil, "Internal Server Error"},
		{http.MethodPost, "/events", admin, map[string]any{"name": "Gala"}, "Error adding event"},
		{http.MethodPost, "/transactions", admin, map[string]any{"event_name": "Gala", "amount": 1, "date": "2024-01-01"}, "Error adding transaction"},
	}

	for _, tt := range tests {
		resp := env.do(t, tt.method, tt.path, tt.token, tt.body)
		assert.Equal(t, http.StatusInternalServerError, resp.status, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.wantMsg, resp.message(t))
		assert.NotContains(t, string(resp.body), "connection refused")
	}
}

// panickingStore panics when events are listed.
type panickingStore struct{ brokenStore }

func (panickingStore) ListEvents(context.Context) ([]*models.Event, error) {
	panic("events table exploded")
}

func TestPanicsAreRecoveredAndCounted(t *testing.T) {
	clock := &testClock{t: time.Now()}
	env := newTestEnv(t, panickingStore{}, clock)

	member, err := env.tokens.Generate(&models.User{ID: 1, Role: models.RoleMember})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/events", member, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.status)

	resp = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `treasurer_http_requests_total{method="GET",route="/events",status="500"} 1`)
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
