package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/maumchat/backend/internal/service/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
	"github.com/maumchat/backend/internal/store"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	emotionSvc, err := emotionservice.NewService(context.Background(), nil, nil, emotionservice.Config{})
	if err != nil {
		t.Fatalf("emotion service: %v", err)
	}
	chatSvc := chatservice.NewService(store.NewMemoryListStore(), emotionSvc, nil, chatservice.Config{})
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, r http.Handler, userID, message string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"userId": userID, "message": message})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatReturnsClassification(t *testing.T) {
	r := setupRouter(t)

	resp := postChat(t, r, "u1", "오늘 너무 행복하고 좋아!")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Reply    string   `json:"reply"`
		Emotion  string   `json:"emotion"`
		Keywords []string `json:"keywords"`
		Context  []struct {
			Message string `json:"message"`
		} `json:"context"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Emotion != "positive" {
		t.Fatalf("unexpected emotion: %s", body.Emotion)
	}
	if len(body.Keywords) != 2 {
		t.Fatalf("unexpected keywords: %v", body.Keywords)
	}
	if body.Reply == "" {
		t.Fatal("reply must never be empty")
	}
	if len(body.Context) != 1 {
		t.Fatalf("context should hold the recorded turn, got %d", len(body.Context))
	}
}

func TestChatMissingUserID(t *testing.T) {
	r := setupRouter(t)

	resp := postChat(t, r, "", "안녕")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatInvalidBody(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("not json")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestContextEndpointReturnsRecentMessages(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 3; i++ {
		postChat(t, r, "u1", fmt.Sprintf("메시지 %d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/context/u1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		RecentMessages []struct {
			Message string `json:"message"`
			Emotion string `json:"emotion"`
		} `json:"recentMessages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.RecentMessages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(body.RecentMessages))
	}
	if body.RecentMessages[2].Message != "메시지 2" {
		t.Fatalf("unexpected newest message: %s", body.RecentMessages[2].Message)
	}
}

func TestEmotionsEndpointRespectsLimit(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 15; i++ {
		postChat(t, r, "u1", fmt.Sprintf("기록 %d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/emotions/u1?limit=10", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		EmotionHistory []struct {
			Message string `json:"message"`
		} `json:"emotionHistory"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.EmotionHistory) != 10 {
		t.Fatalf("expected 10 records, got %d", len(body.EmotionHistory))
	}
	if body.EmotionHistory[0].Message != "기록 5" {
		t.Fatalf("expected oldest of window first, got %s", body.EmotionHistory[0].Message)
	}
}

func TestEmotionsEndpointInvalidLimit(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/chat/emotions/u1?limit=abc", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
