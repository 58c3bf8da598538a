package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := setupTestServerWithWallet(t, func() wallet.Wallet {
		return wallet.NewDemo(0)
	})
	return srv, createSessionForTest(t, srv.URL)
}

func setupTestServerWithWallet(t *testing.T, newWallet func() wallet.Wallet) *httptest.Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "flowpilot-test.db")
	database, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := store.ApplyMigrations(database); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	srv := httptest.NewServer(NewRouter(Deps{
		Persistent: store.NewSQLite(database),
		NewWallet:  newWallet,
		Version:    "test",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createSessionForTest(t *testing.T, baseURL string) string {
	t.Helper()
	resp := doReq(t, baseURL, "", http.MethodPost, "/api/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	var payload sessionResponse
	decodeJSON(t, resp, &payload)
	if payload.Token == "" || payload.SessionID == "" {
		t.Fatalf("incomplete session payload: %+v", payload)
	}
	return payload.Token
}

func doReq(t *testing.T, baseURL, token, method, path string, body any) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal req: %v", err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := doReq(t, srv.URL, "", http.MethodGet, "/api/v1/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Status    string `json:"status"`
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
		Sessions  int    `json:"sessions"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Status != "ok" || payload.Version != "test" || payload.Timestamp == "" {
		t.Fatalf("unexpected status payload: %+v", payload)
	}
	if payload.Sessions != 1 {
		t.Fatalf("sessions = %d", payload.Sessions)
	}
}

func TestAuthGuard(t *testing.T) {
	srv, _ := setupTestServer(t)

	noAuth := doReq(t, srv.URL, "", http.MethodGet, "/api/v1/agents", nil)
	if noAuth.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", noAuth.StatusCode)
	}
	_ = noAuth.Body.Close()

	badToken := doReq(t, srv.URL, "fp_sess_bogus", http.MethodGet, "/api/v1/agents", nil)
	if badToken.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", badToken.StatusCode)
	}
	_ = badToken.Body.Close()
}

func TestSessionLifecycle(t *testing.T) {
	srv, token := setupTestServer(t)

	info := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/sessions/current", nil)
	if info.StatusCode != http.StatusOK {
		t.Fatalf("session info status = %d", info.StatusCode)
	}
	var payload sessionResponse
	decodeJSON(t, info, &payload)
	if payload.Mode != "demo" {
		t.Fatalf("fresh session mode = %q", payload.Mode)
	}
	if payload.Token != "" {
		t.Fatal("token echoed back on session info")
	}

	del := doReq(t, srv.URL, token, http.MethodDelete, "/api/v1/sessions/current", nil)
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete session status = %d", del.StatusCode)
	}
	_ = del.Body.Close()

	afterDelete := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/sessions/current", nil)
	if afterDelete.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after session delete, got %d", afterDelete.StatusCode)
	}
	_ = afterDelete.Body.Close()
}

func TestSessionsShareOnlyPersistentState(t *testing.T) {
	srv, tokenA := setupTestServer(t)
	tokenB := createSessionForTest(t, srv.URL)

	mint := doReq(t, srv.URL, tokenA, http.MethodPost, "/api/v1/agents", map[string]any{
		"type": "AutoCompoundOnly5P",
	})
	if mint.StatusCode != http.StatusCreated {
		t.Fatalf("mint status = %d", mint.StatusCode)
	}
	_ = mint.Body.Close()

	// Agents are session-scoped.
	var agentsB struct {
		Total int `json:"total"`
	}
	resp := doReq(t, srv.URL, tokenB, http.MethodGet, "/api/v1/agents", nil)
	decodeJSON(t, resp, &agentsB)
	if agentsB.Total != 0 {
		t.Fatalf("second session sees %d agents", agentsB.Total)
	}

	// Marketplace listings live in the shared persistent scope.
	var listA, listB struct {
		Total int `json:"total"`
	}
	respA := doReq(t, srv.URL, tokenA, http.MethodGet, "/api/v1/market/listings", nil)
	decodeJSON(t, respA, &listA)
	respB := doReq(t, srv.URL, tokenB, http.MethodGet, "/api/v1/market/listings", nil)
	decodeJSON(t, respB, &listB)
	if listA.Total == 0 || listA.Total != listB.Total {
		t.Fatalf("listings not shared: %d vs %d", listA.Total, listB.Total)
	}
}
