package chat_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/maumchat/backend/internal/service/ai"
	chatservice "github.com/maumchat/backend/internal/service/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
	"github.com/maumchat/backend/internal/store"
)

func newService(t *testing.T, lists store.ListStore, cfg chatservice.Config) *chatservice.Service {
	t.Helper()
	// No model: classification deterministically uses the rule matcher.
	emotionSvc, err := emotionservice.NewService(context.Background(), nil, nil, emotionservice.Config{})
	if err != nil {
		t.Fatalf("emotion service: %v", err)
	}
	return chatservice.NewService(lists, emotionSvc, nil, cfg)
}

func TestHandleMessageClassifiesAndPersists(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{})
	ctx := context.Background()

	exchange, err := svc.HandleMessage(ctx, "u1", "오늘 너무 행복하고 좋아!")
	if err != nil {
		t.Fatalf("HandleMessage err: %v", err)
	}

	if exchange.Emotion != "positive" {
		t.Fatalf("unexpected emotion: %s", exchange.Emotion)
	}
	if !reflect.DeepEqual(exchange.Keywords, []string{"행복", "좋아"}) {
		t.Fatalf("unexpected keywords: %v", exchange.Keywords)
	}
	if exchange.Reply != ai.FallbackFor("positive") {
		t.Fatalf("expected canned reply without AI service, got %s", exchange.Reply)
	}
	if len(exchange.Context) != 1 || exchange.Context[0].Message != "오늘 너무 행복하고 좋아!" {
		t.Fatalf("context should contain the recorded turn: %+v", exchange.Context)
	}
	if exchange.Context[0].Timestamp == "" {
		t.Fatal("persisted turn must carry a timestamp")
	}

	records, err := svc.RecentRecords(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentRecords err: %v", err)
	}
	if len(records) != 1 || records[0].Emotion != "positive" {
		t.Fatalf("emotion history not written: %+v", records)
	}
}

func TestHandleMessageRequiresUser(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{})

	if _, err := svc.HandleMessage(context.Background(), "", "안녕"); !errors.Is(err, chatservice.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}

func TestRecentTurnsWindow(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{ContextWindow: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.HandleMessage(ctx, "u1", fmt.Sprintf("메시지 %d", i)); err != nil {
			t.Fatalf("HandleMessage err: %v", err)
		}
	}

	turns, err := svc.RecentTurns(ctx, "u1")
	if err != nil {
		t.Fatalf("RecentTurns err: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected window of 3, got %d", len(turns))
	}
	if turns[0].Message != "메시지 2" || turns[2].Message != "메시지 4" {
		t.Fatalf("unexpected window: %s .. %s", turns[0].Message, turns[2].Message)
	}
}

func TestRecentRecordsRespectsLimit(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.HandleMessage(ctx, "u1", fmt.Sprintf("기록 %d", i)); err != nil {
			t.Fatalf("HandleMessage err: %v", err)
		}
	}

	records, err := svc.RecentRecords(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentRecords err: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected exactly 10 records, got %d", len(records))
	}
	if records[0].Message != "기록 5" || records[9].Message != "기록 14" {
		t.Fatalf("expected the 10 most recent oldest-first, got %s .. %s",
			records[0].Message, records[9].Message)
	}
}

func TestRecentRecordsDefaultLimit(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{HistoryDefaultLimit: 2})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.HandleMessage(ctx, "u1", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("HandleMessage err: %v", err)
		}
	}

	records, err := svc.RecentRecords(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("RecentRecords err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected default limit of 2, got %d", len(records))
	}
}

func TestRetentionCapsLists(t *testing.T) {
	lists := store.NewMemoryListStore()
	svc := newService(t, lists, chatservice.Config{RetentionLimit: 5, ContextWindow: 100})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := svc.HandleMessage(ctx, "u1", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("HandleMessage err: %v", err)
		}
	}

	count, err := lists.Len(ctx, "chat:context:u1")
	if err != nil {
		t.Fatalf("Len err: %v", err)
	}
	if count != 5 {
		t.Fatalf("retention should cap the list at 5, got %d", count)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	svc := newService(t, store.NewMemoryListStore(), chatservice.Config{})
	ctx := context.Background()

	if _, err := svc.HandleMessage(ctx, "u1", "행복해"); err != nil {
		t.Fatalf("HandleMessage err: %v", err)
	}

	turns, err := svc.RecentTurns(ctx, "u2")
	if err != nil {
		t.Fatalf("RecentTurns err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("u2 should have no context, got %d turns", len(turns))
	}
}

// failingListStore simulates a down backing store.
type failingListStore struct{}

func (failingListStore) Append(context.Context, string, []byte) error { return errors.New("down") }
func (failingListStore) Last(context.Context, string, int) ([][]byte, error) {
	return nil, errors.New("down")
}
func (failingListStore) Trim(context.Context, string, int) error { return errors.New("down") }
func (failingListStore) Len(context.Context, string) (int, error) {
	return 0, errors.New("down")
}

func TestStoreFailureSurfacesUnavailable(t *testing.T) {
	svc := newService(t, failingListStore{}, chatservice.Config{})

	_, err := svc.HandleMessage(context.Background(), "u1", "행복해")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
