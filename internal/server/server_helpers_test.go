package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func expectStatus(t *testing.T, resp *http.Response, status int) map[string]any {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, readBody(t, resp))
	}
	return decodeBody(t, resp)
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	body := expectStatus(t, resp, status)
	if body["code"] != code {
		t.Fatalf("expected code %q, got %#v", code, body)
	}
}

func assertString(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	value, ok := body[key].(string)
	if !ok || value == "" {
		t.Fatalf("expected %s string, got %#v", key, body[key])
	}
	return value
}

func createRoom(t *testing.T, ts *httptest.Server, token string, payload any) (string, string, string) {
	t.Helper()
	body := expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/rooms", token, payload), http.StatusCreated)
	return assertString(t, body, "room_id"), assertString(t, body, "code"), assertString(t, body, "player_id")
}

func joinRoom(t *testing.T, ts *httptest.Server, token, code string) string {
	t.Helper()
	body := expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/join", token, map[string]string{"code": code}), http.StatusOK)
	return assertString(t, body, "player_id")
}
