package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameshop/internal/api"
	"github.com/mcoot/gameshop/internal/api/apierr"
	apimiddleware "github.com/mcoot/gameshop/internal/api/middleware"
	"github.com/mcoot/gameshop/internal/api/response"
	"github.com/mcoot/gameshop/internal/factory"
	"github.com/mcoot/gameshop/internal/middleware"
	"github.com/mcoot/gameshop/internal/testutil"
)

const adminToken = "admin-token"

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		Metrics:           app.Metrics,
		Storage:           app.Storage,
		AccountController: app.AccountController,
		Catalog:           app.Catalog,
		GameName:          "Test Game",
		Version:           "0.0.1",
		AdminToken:        adminToken,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func accountQuery(params ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		q.Set(params[i], params[i+1])
	}
	return q.Encode()
}

func createAccount(t *testing.T, ts *testServer, username, password string) response.CreateAccountResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/account", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.CreateAccountResponse](t, rr)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.IndexResponse](t, rr)
	assert.Equal(t, "ShopAPI - Test Game", resp.Name)
	assert.Equal(t, "0.0.1", resp.Version)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.HealthResponse](t, rr).Status)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `gameshop_accounts_registrations_total{outcome="success"} 1`)
	assert.Contains(t, rr.Body.String(), `route="/account"`)
}

// Register, add 50, fail to deduct 100, then merge two profile writes
func TestEndToEndScenario(t *testing.T) {
	ts := newTestServer(t)

	created := createAccount(t, ts, "alice", "pw123")
	assert.Equal(t, response.MessageAccountCreated, created.Message)
	require.NotEmpty(t, created.UserID)
	require.NotEmpty(t, created.Secret)

	rr := ts.request(http.MethodPut, "/account", map[string]any{
		"user_id": created.UserID, "secret": created.Secret, "action": "add", "amount": 50,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	coins := decode[response.CoinsResponse](t, rr)
	assert.Equal(t, int64(50), coins.Coins)
	assert.Equal(t, response.MessageCoinsUpdated, coins.Message)

	rr = ts.request(http.MethodPut, "/account", map[string]any{
		"user_id": created.UserID, "secret": created.Secret, "action": "deduct", "amount": 100,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientFunds, decode[apierr.ErrorResponse](t, rr).Code)

	rr = ts.request(http.MethodGet, "/account?"+accountQuery("user_id", created.UserID, "secret", created.Secret), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(50), decode[response.AccountResponse](t, rr).Coins)

	rr = ts.request(http.MethodPut, "/data", map[string]any{
		"user_id": created.UserID, "secret": created.Secret, "data": map[string]any{"level": 3},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPut, "/data", map[string]any{
		"user_id": created.UserID, "secret": created.Secret, "data": map[string]any{"score": 10},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[response.UpdateDataResponse](t, rr)
	assert.Equal(t, response.MessageDataUpdated, updated.Message)
	assert.Equal(t, map[string]any{"level": 3.0, "score": 10.0}, map[string]any(updated.UpdatedData))
}

func TestCreateAccountErrors(t *testing.T) {
	ts := newTestServer(t)
	createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodPost, "/account", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUsernameExists, decode[apierr.ErrorResponse](t, rr).Code)

	rr = ts.request(http.MethodPost, "/account", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decode[apierr.ErrorResponse](t, rr).Code)

	req := httptest.NewRequest(http.MethodPost, "/account", bytes.NewBufferString("{not json"))
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "pw123"})
	require.Equal(t, http.StatusOK, rr.Code)
	login := decode[response.LoginResponse](t, rr)
	assert.Equal(t, response.MessageLoginSuccess, login.Message)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, created.UserID, login.UserID)
	assert.Equal(t, created.Secret, login.Secret)

	rr = ts.request(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decode[apierr.ErrorResponse](t, rr).Code)

	rr = ts.request(http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeUserNotFound, decode[apierr.ErrorResponse](t, rr).Code)
}

func TestGetAccount(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"secret", accountQuery("user_id", created.UserID, "secret", created.Secret), http.StatusOK},
		{"password", accountQuery("user_id", created.UserID, "password", "pw123"), http.StatusOK},
		{"wrong secret", accountQuery("user_id", created.UserID, "secret", "nope"), http.StatusUnauthorized},
		{"wrong password", accountQuery("user_id", created.UserID, "password", "nope"), http.StatusUnauthorized},
		{"no credential", accountQuery("user_id", created.UserID), http.StatusUnauthorized},
		{"unknown id", accountQuery("user_id", "missing", "secret", created.Secret), http.StatusNotFound},
		{"no user id", accountQuery("secret", created.Secret), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodGet, "/account?"+tt.query, nil)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}

	rr := ts.request(http.MethodGet, "/account?"+accountQuery("user_id", created.UserID, "secret", created.Secret), nil)
	summary := decode[response.AccountResponse](t, rr)
	assert.Equal(t, "alice", summary.Username)
	assert.Equal(t, int64(0), summary.Coins)
	assert.NotNil(t, summary.Purchases)
	assert.Empty(t, summary.Purchases)
}

func TestUpdateCoinsErrors(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"invalid action", map[string]any{"user_id": created.UserID, "secret": created.Secret, "action": "steal", "amount": 5}, http.StatusBadRequest, apierr.CodeInvalidAction},
		{"zero amount", map[string]any{"user_id": created.UserID, "secret": created.Secret, "action": "add", "amount": 0}, http.StatusBadRequest, apierr.CodeInvalidAmount},
		{"negative amount", map[string]any{"user_id": created.UserID, "secret": created.Secret, "action": "add", "amount": -5}, http.StatusBadRequest, apierr.CodeInvalidAmount},
		{"wrong secret", map[string]any{"user_id": created.UserID, "secret": "nope", "action": "add", "amount": 5}, http.StatusUnauthorized, apierr.CodeUnauthorized},
		{"unknown id", map[string]any{"user_id": "missing", "secret": created.Secret, "action": "add", "amount": 5}, http.StatusNotFound, apierr.CodeUserNotFound},
		{"fractional amount", map[string]any{"user_id": created.UserID, "secret": created.Secret, "action": "add", "amount": 1.5}, http.StatusBadRequest, apierr.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPut, "/account", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, decode[apierr.ErrorResponse](t, rr).Code)
		})
	}
}

func TestUpdateDataRejectsInvalidKeys(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodPut, "/data", map[string]any{
		"user_id": created.UserID, "secret": created.Secret, "data": map[string]any{"level": 1},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPut, "/data", map[string]any{
		"user_id": created.UserID, "secret": created.Secret,
		"data": map[string]any{"level": 9, "wallet": 1, "admin": true},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, "Invalid keys in data", errResp.Error)
	assert.Equal(t, []string{"admin", "wallet"}, errResp.InvalidKeys)

	rr = ts.request(http.MethodGet, "/data?"+accountQuery("user_id", created.UserID, "secret", created.Secret), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"level": 1.0}, map[string]any(decode[response.DataResponse](t, rr).Data))
}

func TestDataKeepsLargeIntegersExact(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodPut, "/data", map[string]any{
		"user_id": created.UserID, "secret": created.Secret,
		"data": map[string]any{
			"score":       json.RawMessage("9007199254740993"),
			"preferences": json.RawMessage(`{"seed":-9223372036854775808}`),
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"score":9007199254740993`)

	rr = ts.request(http.MethodGet, "/data?"+accountQuery("user_id", created.UserID, "secret", created.Secret), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"score":9007199254740993`)
	assert.Contains(t, rr.Body.String(), `"seed":-9223372036854775808`)
}

func TestDataRequiresSecret(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodGet, "/data?"+accountQuery("user_id", created.UserID), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/data?"+accountQuery("user_id", created.UserID, "password", "pw123"), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/data?"+accountQuery("user_id", "missing", "secret", "x"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodPut, "/data", map[string]any{"user_id": created.UserID, "secret": "nope", "data": map[string]any{"level": 1}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPut, "/data", map[string]any{"user_id": created.UserID, "secret": created.Secret})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProductsAndPurchase(t *testing.T) {
	ts := newTestServer(t)
	created := createAccount(t, ts, "alice", "pw123")

	rr := ts.request(http.MethodGet, "/product", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.ProductsResponse](t, rr).Products, 2)

	rr = ts.request(http.MethodPost, "/purchase", map[string]string{
		"user_id": created.UserID, "secret": created.Secret, "product_id": "prod_coins_100",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	bought := decode[response.PurchaseResponse](t, rr)
	assert.Equal(t, "100 Coins", bought.Purchase.ProductName)
	assert.Equal(t, int64(99), bought.Amount)
	assert.NotEmpty(t, bought.ReceiptID)

	rr = ts.request(http.MethodGet, "/account?"+accountQuery("user_id", created.UserID, "secret", created.Secret), nil)
	summary := decode[response.AccountResponse](t, rr)
	require.Len(t, summary.Purchases, 1)
	assert.Equal(t, "100 Coins", summary.Purchases[0].ProductName)
	assert.Equal(t, int64(0), summary.Coins)

	rr = ts.request(http.MethodPost, "/purchase", map[string]string{
		"user_id": created.UserID, "secret": created.Secret, "product_id": "prod_missing",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ts.app.Catalog.Decline("prod_season_pass")
	rr = ts.request(http.MethodPost, "/purchase", map[string]string{
		"user_id": created.UserID, "secret": created.Secret, "product_id": "prod_season_pass",
	})
	assert.Equal(t, http.StatusPaymentRequired, rr.Code)

	rr = ts.request(http.MethodPost, "/purchase", map[string]string{
		"user_id": created.UserID, "secret": "nope", "product_id": "prod_coins_100",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateProductRequiresAdminToken(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"name": "Gem Pack", "description": "Shiny", "price": 2.5}

	rr := ts.request(http.MethodPost, "/product", body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/product", body, apimiddleware.AdminTokenHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/product", body, apimiddleware.AdminTokenHeader, adminToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/product", nil)
	assert.Len(t, decode[response.ProductsResponse](t, rr).Products, 3)
}

func TestCreateProductDisabledWithoutToken(t *testing.T) {
	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		Metrics:           app.Metrics,
		Storage:           app.Storage,
		AccountController: app.AccountController,
		Catalog:           app.Catalog,
	})

	req := httptest.NewRequest(http.MethodPost, "/product", bytes.NewBufferString(`{"name":"x","price":1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
