package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/atk-inventory/internal/api"
	"github.com/Spok95/atk-inventory/internal/auth"
	"github.com/Spok95/atk-inventory/internal/ledger"
	"github.com/Spok95/atk-inventory/internal/report"
	"github.com/Spok95/atk-inventory/internal/storage/memory"
)

const testSecret = "test-secret"

type env struct {
	app   *fiber.App
	svc   *ledger.Service
	token string
}

func newEnv(t *testing.T) env {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := ledger.New(store, log, nil, 0)
	authSvc := auth.New(store, testSecret)
	srv := &api.Server{
		Ledger:  svc,
		Reports: report.New(store),
		Auth:    authSvc,
		Log:     log,
		Secret:  testSecret,
	}
	app := srv.App()

	if _, err := authSvc.Register(context.Background(), "admin", "admin123", "Administrator"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := authSvc.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	return env{app: app, svc: svc, token: token}
}

func (e env) do(t *testing.T, method, path string, body any, authed bool) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" {
		// list endpoints return arrays; callers that need them decode raw themselves
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (e env) createItem(t *testing.T, name string, stock, minStock int64) int64 {
	t.Helper()
	it, err := e.svc.CreateItem(context.Background(), name, "Alat Tulis", "Pcs", stock, minStock, 2500, 1)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return it.ID
}

func TestSubmitAndApproveFlow(t *testing.T) {
	e := newEnv(t)
	id := e.createItem(t, "Pulpen Biru", 50, 10)

	resp, body := e.do(t, http.MethodPost, "/api/requests", map[string]any{
		"requester_name": "Budi Santoso",
		"department":     "Finance",
		"item_id":        id,
		"qty":            5,
	}, false)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201 (%v)", resp.StatusCode, body)
	}
	if body["status"] != "pending" {
		t.Fatalf("status = %v, want pending", body["status"])
	}
	reqID := int64(body["id"].(float64))

	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", reqID), nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200 (%v)", resp.StatusCode, body)
	}
	if body["status"] != "approved" {
		t.Fatalf("status = %v, want approved", body["status"])
	}

	// second approval hits the stale-state guard
	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", reqID), nil, true)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("re-approve status = %d, want 409", resp.StatusCode)
	}
	if body["kind"] != "invalid_transition" {
		t.Fatalf("kind = %v, want invalid_transition", body["kind"])
	}

	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/complete", reqID), nil, true)
	if resp.StatusCode != http.StatusOK || body["status"] != "completed" {
		t.Fatalf("complete = %d %v, want 200 completed", resp.StatusCode, body)
	}
}

func TestErrorTaxonomyMapping(t *testing.T) {
	e := newEnv(t)
	id := e.createItem(t, "Stapler", 3, 3)

	// validation -> 422
	resp, body := e.do(t, http.MethodPost, "/api/requests", map[string]any{
		"requester_name": "Al",
		"department":     "Finance",
		"item_id":        id,
		"qty":            1,
	}, false)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("validation status = %d, want 422", resp.StatusCode)
	}
	if body["kind"] != "validation" {
		t.Fatalf("kind = %v, want validation", body["kind"])
	}

	// not found -> 404
	resp, body = e.do(t, http.MethodPost, "/api/requests", map[string]any{
		"requester_name": "Budi Santoso",
		"department":     "Finance",
		"item_id":        9999,
		"qty":            1,
	}, false)
	if resp.StatusCode != http.StatusNotFound || body["kind"] != "not_found" {
		t.Fatalf("not found = %d %v, want 404 not_found", resp.StatusCode, body)
	}

	// stock insufficient -> 409 with context
	resp, body = e.do(t, http.MethodPost, "/api/requests", map[string]any{
		"requester_name": "Budi Santoso",
		"department":     "Finance",
		"item_id":        id,
		"qty":            5,
	}, false)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", resp.StatusCode)
	}
	reqID := int64(body["id"].(float64))
	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", reqID), nil, true)
	if resp.StatusCode != http.StatusConflict || body["kind"] != "stock_insufficient" {
		t.Fatalf("insufficient = %d %v, want 409 stock_insufficient", resp.StatusCode, body)
	}
	if body["available"].(float64) != 3 || body["requested"].(float64) != 5 {
		t.Fatalf("context = %v/%v, want 3/5", body["available"], body["requested"])
	}

	// conflict on delete -> 409
	resp, body = e.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", id), nil, true)
	if resp.StatusCode != http.StatusConflict || body["kind"] != "conflict" {
		t.Fatalf("delete conflict = %d %v, want 409 conflict", resp.StatusCode, body)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	id := e.createItem(t, "Kertas A4", 20, 5)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/requests"},
		{http.MethodPost, fmt.Sprintf("/api/items/%d/stock-in", id)},
		{http.MethodGet, "/api/reports/summary"},
		{http.MethodGet, "/api/export/items.csv"},
	}
	for _, p := range paths {
		resp, _ := e.do(t, p.method, p.path, nil, false)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, resp.StatusCode)
		}
	}

	// garbage token is refused too
	req, _ := http.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d, want 401", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin", "password": "admin123",
	}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	if body["token"] == nil || body["token"] == "" {
		t.Fatal("no token in response")
	}

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin", "password": "wrong",
	}, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", resp.StatusCode)
	}
}

func TestStockEndpoints(t *testing.T) {
	e := newEnv(t)
	id := e.createItem(t, "Tinta Printer", 0, 5)

	resp, body := e.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/stock-in", id), map[string]any{
		"qty": 12, "reason": "pembelian rutin", "supplier": "CV Maju", "unit_price": 150000,
	}, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("stock-in status = %d (%v), want 201", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/stock-out", id), map[string]any{
		"qty": 4, "reason": "rusak",
	}, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("stock-out status = %d (%v), want 201", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/adjust", id), map[string]any{
		"new_value": 10, "reason": "opname",
	}, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("adjust status = %d, want 201", resp.StatusCode)
	}

	// adjusting to the current value records nothing
	resp, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/adjust", id), map[string]any{
		"new_value": 10, "reason": "opname ulang",
	}, true)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("no-op adjust status = %d, want 204", resp.StatusCode)
	}

	resp, body = e.do(t, http.MethodPost, fmt.Sprintf("/api/items/%d/stock-out", id), map[string]any{
		"qty": 999, "reason": "overdraw",
	}, true)
	if resp.StatusCode != http.StatusConflict || body["kind"] != "stock_insufficient" {
		t.Fatalf("overdraw = %d %v, want 409 stock_insufficient", resp.StatusCode, body)
	}
}

func TestPublicItemsList(t *testing.T) {
	e := newEnv(t)
	e.createItem(t, "Habis", 0, 5)
	e.createItem(t, "Aman", 50, 5)

	req, _ := http.NewRequest(http.MethodGet, "/api/items", nil)
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d items, want 2", len(rows))
	}
	statuses := map[string]string{}
	for _, r := range rows {
		statuses[r["name"].(string)] = r["status"].(string)
	}
	if statuses["Habis"] != "critical" || statuses["Aman"] != "ok" {
		t.Fatalf("statuses = %v", statuses)
	}
}
