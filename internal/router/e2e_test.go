//go:build integration

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/router"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/sse"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var (
		req *http.Request
		err error
	)
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func expect(t *testing.T, resp *http.Response, status int, dest any) {
	t.Helper()
	if !assert.Equal(t, status, resp.StatusCode) {
		var raw map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		t.Fatalf("unexpected body: %v", raw)
	}
	if dest == nil {
		resp.Body.Close()
		return
	}
	decodeJSON(t, resp, dest)
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("inventario_test"),
		tcPostgres.WithUsername("inventario"),
		tcPostgres.WithPassword("inventario"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRememberHours:   24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		CacheEnabled:       true,
		CacheTTLSeconds:    60,
		BorradorTTLMinutes: 10,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		BusinessName:       "Inventario E2E",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	r := router.New(router.Deps{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Hub:        sse.NewHub(),
		Dispatcher: worker.NewDispatcher(rdb),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	// First run: create the administrator through the setup endpoint.
	expect(t, do(t, srv, "POST", "/v1/setup", jsonBody(t, map[string]string{
		"nombre_completo": "Admin E2E",
		"email":           "admin@e2e.test",
		"password":        "inventario2026",
	}), ""), http.StatusCreated, nil)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	expect(t, do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": "admin@e2e.test", "password": "inventario2026"}), ""),
		http.StatusOK, &login)
	require.NotEmpty(t, login.AccessToken)

	return &testEnv{server: srv, token: login.AccessToken}
}

type idResp struct {
	ID string `json:"id"`
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_SaleCycle(t *testing.T) {
	env := setupTestEnv(t)

	var cat idResp
	expect(t, do(t, env.server, "POST", "/v1/categorias",
		jsonBody(t, map[string]any{"nombre": "Periféricos"}), env.token), http.StatusCreated, &cat)

	var prod idResp
	expect(t, do(t, env.server, "POST", "/v1/productos", jsonBody(t, map[string]any{
		"sku":             "MOU-001",
		"nombre":          "Mouse óptico",
		"categoria_id":    cat.ID,
		"stock_actual":    50,
		"stock_minimo":    46,
		"stock_maximo":    100,
		"precio_unitario": "25",
	}), env.token), http.StatusCreated, &prod)

	var cli idResp
	expect(t, do(t, env.server, "POST", "/v1/clientes",
		jsonBody(t, map[string]any{"nombre": "ACME SA"}), env.token), http.StatusCreated, &cli)

	// 5 × 25 = 125; stock 50 → 45, which is below the minimum of 46.
	var venta struct {
		ID           string `json:"id"`
		Total        string `json:"total"`
		Advertencias []struct {
			StockActual int `json:"stock_actual"`
		} `json:"advertencias"`
	}
	expect(t, do(t, env.server, "POST", "/v1/ventas", jsonBody(t, map[string]any{
		"cliente_id": cli.ID,
		"items":      []map[string]any{{"producto_id": prod.ID, "cantidad": 5}},
	}), env.token), http.StatusCreated, &venta)
	assert.Equal(t, "125", venta.Total)
	require.Len(t, venta.Advertencias, 1)
	assert.Equal(t, 45, venta.Advertencias[0].StockActual)

	var p struct {
		StockActual int `json:"stock_actual"`
	}
	expect(t, do(t, env.server, "GET", "/v1/productos/"+prod.ID, nil, env.token), http.StatusOK, &p)
	assert.Equal(t, 45, p.StockActual)

	// Over-selling is rejected with the available stock and nothing is written.
	var ve struct {
		Fields map[string]string `json:"fields"`
	}
	expect(t, do(t, env.server, "POST", "/v1/ventas", jsonBody(t, map[string]any{
		"cliente_id": cli.ID,
		"items":      []map[string]any{{"producto_id": prod.ID, "cantidad": 999}},
	}), env.token), http.StatusUnprocessableEntity, &ve)
	assert.Equal(t, "Stock insuficiente (disponible: 45)", ve.Fields["items[0].cantidad"])

	var lista struct {
		Total int64 `json:"total"`
	}
	expect(t, do(t, env.server, "GET", "/v1/ventas", nil, env.token), http.StatusOK, &lista)
	assert.Equal(t, int64(1), lista.Total)

	// The salida movement is listed with the sale's reference.
	var movs struct {
		Data []map[string]any `json:"data"`
	}
	expect(t, do(t, env.server, "GET", "/v1/movimientos?vista=plana&tipo=salida", nil, env.token), http.StatusOK, &movs)
	require.NotEmpty(t, movs.Data)

	// A category with products cannot be deleted.
	var conflicto struct {
		Detail string `json:"detail"`
	}
	expect(t, do(t, env.server, "DELETE", "/v1/categorias/"+cat.ID, nil, env.token), http.StatusConflict, &conflicto)
	assert.Contains(t, conflicto.Detail, "1 producto(s)")

	resp := do(t, env.server, "GET", fmt.Sprintf("/v1/ventas/%s/comprobante", venta.ID), nil, env.token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestE2E_LogoutRevokesToken(t *testing.T) {
	env := setupTestEnv(t)

	expect(t, do(t, env.server, "GET", "/v1/auth/me", nil, env.token), http.StatusOK, nil)
	expect(t, do(t, env.server, "POST", "/v1/auth/logout", nil, env.token), http.StatusNoContent, nil)
	expect(t, do(t, env.server, "GET", "/v1/auth/me", nil, env.token), http.StatusUnauthorized, nil)

	// Setup is one-shot.
	expect(t, do(t, env.server, "POST", "/v1/setup", jsonBody(t, map[string]string{
		"nombre_completo": "Otro",
		"email":           "otro@e2e.test",
		"password":        "inventario2026",
	}), ""), http.StatusConflict, nil)
}
