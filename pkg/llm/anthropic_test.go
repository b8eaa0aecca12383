package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicProviderComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Fatalf("expected api key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Fatalf("expected anthropic version header")
		}
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "You are a coach." {
			t.Fatalf("expected system prompt, got %q", req.System)
		}
		if req.MaxTokens <= 0 {
			t.Fatalf("expected max_tokens to be set")
		}
		fmt.Fprint(w, `{"content":[{"type":"text","text":"Hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`)
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{
		APIURL: server.URL,
		APIKey: "test-key",
		Model:  "claude-test",
	})

	content, err := provider.Complete(context.Background(), "You are a coach.", "hello")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "Hi there" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestAnthropicProviderErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"overloaded"}`)
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{APIURL: server.URL, Model: "claude-test"})
	_, err := provider.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTimeout(err) || IsRateLimited(err) {
		t.Fatalf("expected plain provider error, got %v", err)
	}
}
