package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPlaceholderGeneratesDataURL(t *testing.T) {
	gen := NewPlaceholder()
	first, err := gen.Generate(context.Background(), "A penguin hosting a cooking show with <tags>")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(first.Handle, "data:image/svg+xml;base64,") {
		t.Fatalf("unexpected handle prefix: %q", first.Handle[:32])
	}
	second, err := gen.Generate(context.Background(), "A penguin hosting a cooking show with <tags>")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Handle == second.Handle {
		t.Fatalf("expected consecutive placeholders to differ in colour")
	}
}

func TestPlaceholderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPlaceholder().Generate(ctx, "anything"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantHandle string
		wantErr    string
	}{
		{name: "url response", status: http.StatusOK, body: `{"data":[{"url":"https://img.example/1.png"}]}`, wantHandle: "https://img.example/1.png"},
		{name: "base64 response", status: http.StatusOK, body: `{"data":[{"b64_json":"AAAA"}]}`, wantHandle: "data:image/png;base64,AAAA"},
		{name: "api error", status: http.StatusBadRequest, body: `{"error":{"message":"content policy"}}`, wantErr: "content policy"},
		{name: "bad status", status: http.StatusBadGateway, body: `oops`, wantErr: "502"},
		{name: "no images", status: http.StatusOK, body: `{"data":[]}`, wantErr: "no images"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got openAIImageRequest
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/images/generations" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Errorf("missing bearer token")
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(ts.Close)

			gen, err := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: ts.URL, Size: "512x512"})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			result, err := gen.Generate(context.Background(), "A dragon ordering pizza")
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if result.Handle != tc.wantHandle {
				t.Fatalf("expected handle %q, got %q", tc.wantHandle, result.Handle)
			}
			if got.Prompt != "A dragon ordering pizza" || got.N != 1 || got.Model != "dall-e-3" || got.Size != "512x512" {
				t.Fatalf("unexpected request body: %#v", got)
			}
		})
	}
}
