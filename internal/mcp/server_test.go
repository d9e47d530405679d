package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calendarserver/caldav-mcp/internal/model/modeltest"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	store := modeltest.New()
	user := store.AddUser("alice", "alice@example.com", "hunter2")
	raw, _, err := store.CreateToken(context.Background(), user.ID, "test token", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	srv := New(store, ToolModeFull, testProdID, "1.0.0-test", zerolog.Nop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, raw
}

func postRPC(t *testing.T, ts *httptest.Server, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	return resp
}

func TestMCPUnauthenticatedReturns401(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp", bytes.NewBufferString(`{}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate header should be set on 401")
	}
}

func TestMCPInitializeSetsSessionHeader(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Mcp-Session-Id") == "" {
		t.Fatal("initialize should set Mcp-Session-Id")
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	result := decoded["result"].(map[string]any)
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
}

func TestMCPToolsListReturnsTwelveInFullMode(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tools := decoded["result"].(map[string]any)["tools"].([]any)
	if len(tools) != 12 {
		t.Fatalf("tools/list returned %d tools, want 12", len(tools))
	}
}

func TestMCPToolsCallDomainErrorIsNotRPCError(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_calendar","arguments":{"calendar_id":"does-not-exist"}}}`)
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["error"] != nil {
		t.Fatalf("domain errors must never surface as a JSON-RPC error object, got %v", decoded["error"])
	}
	result := decoded["result"].(map[string]any)
	if result["isError"] != true {
		t.Errorf("isError = %v, want true", result["isError"])
	}
}

func TestMCPNotificationGetsNoBodyAnd202(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
}

func TestMCPUnknownMethodIsMethodNotFound(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","id":9,"method":"bogus/method"}`)
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	errObj := decoded["error"].(map[string]any)
	if int(errObj["code"].(float64)) != CodeMethodNotFound {
		t.Errorf("code = %v, want %d", errObj["code"], CodeMethodNotFound)
	}
}

func TestMCPDeleteRemovesSession(t *testing.T) {
	ts, token := newTestServer(t)
	resp := postRPC(t, ts, token, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	sessionID := resp.Header.Get("Mcp-Session-Id")
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	req.Header.Set("Mcp-Session-Id", sessionID)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d, want 200", del.StatusCode)
	}
}

func TestMCPDeleteUnknownSessionIsNoop(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	req.Header.Set("Mcp-Session-Id", "nonexistent")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMCPUnsupportedMethodIs405(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/mcp", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
