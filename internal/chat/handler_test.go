package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachteam/internal/routing"
	"coachteam/pkg/llm"
	"coachteam/pkg/logging"

	"github.com/gin-gonic/gin"
)

func newTestRouter(store Store, provider *fakeProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(newTestOrchestrator(store, provider), logging.NewLogger())
	RegisterRoutes(router.Group("/api/coach"), handler)
	return router
}

func postMessage(t *testing.T, router *gin.Engine, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/coach/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleSendMessage(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, &fakeProvider{})

	recorder := postMessage(t, router, "user-1", SendMessageRequest{
		Channel: "trainer",
		Message: "Спасибо, всё понятно",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		ThreadID string `json:"thread_id"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
		Routing struct {
			Rule string `json:"rule"`
		} `json:"routing"`
		Typing []struct {
			Role string `json:"role"`
			Name string `json:"name"`
		} `json:"typing"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ThreadID == "" || len(resp.Messages) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Routing.Rule != "default" {
		t.Fatalf("expected default rule, got %q", resp.Routing.Rule)
	}
	if len(resp.Typing) != 1 || resp.Typing[0].Role != "trainer" {
		t.Fatalf("unexpected typing hints %+v", resp.Typing)
	}
}

func TestHandleSendMessageRequiresUser(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeProvider{})

	recorder := postMessage(t, router, "", SendMessageRequest{Channel: "team", Message: "привет"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder, "unauthorized")
}

func TestHandleSendMessageValidation(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeProvider{})

	recorder := postMessage(t, router, "user-1", SendMessageRequest{Channel: "team", Message: "   "})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder, "message_required")

	recorder = postMessage(t, router, "user-1", SendMessageRequest{Channel: "barista", Message: "привет"})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder, "invalid_channel")
}

func TestHandleSendMessageUnknownThread(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeProvider{})

	recorder := postMessage(t, router, "user-1", SendMessageRequest{
		Channel:  "team",
		Message:  "привет",
		ThreadID: "missing",
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder, "thread_not_found")
}

func TestHandleSendMessageCompletionTimeout(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		respond: func(string) (string, error) {
			return "", &llm.Error{Kind: llm.KindTimeout, Provider: "test", Message: "deadline exceeded"}
		},
	}
	router := newTestRouter(store, provider)

	recorder := postMessage(t, router, "user-1", SendMessageRequest{
		Channel: "trainer",
		Message: "Спасибо, всё понятно",
	})
	if recorder.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", recorder.Code, recorder.Body.String())
	}
	assertErrorCode(t, recorder, "completion_timeout")
}

func TestHandleGetThread(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, &fakeProvider{})

	thread, _ := store.CreateThread(context.Background(), "user-1", routing.RoleTeam)
	_, _ = store.AppendMessage(context.Background(), thread.ID, Message{Role: "user", Content: "привет"})

	req := httptest.NewRequest(http.MethodGet, "/api/coach/threads/"+thread.ID+"?limit=10", nil)
	req.Header.Set("X-User-ID", "user-1")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		Thread struct {
			ID string `json:"id"`
		} `json:"thread"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Thread.ID != thread.ID || len(resp.Messages) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleGetThreadForbidden(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store, &fakeProvider{})

	thread, _ := store.CreateThread(context.Background(), "user-1", routing.RoleTeam)

	req := httptest.NewRequest(http.MethodGet, "/api/coach/threads/"+thread.ID, nil)
	req.Header.Set("X-User-ID", "intruder")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	assertErrorCode(t, recorder, "forbidden")
}

func assertErrorCode(t *testing.T, recorder *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, resp.Code, recorder.Body.String())
	}
}
