package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/maumchat/backend/internal/model/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
)

type stubChatModel struct {
	reply string
	err   error
}

func (m *stubChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *stubChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.err != nil {
		return nil, m.err
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(schema.AssistantMessage(m.reply, nil), nil)
	sw.Close()
	return sr, nil
}

func (m *stubChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestReplyReturnsModelOutput(t *testing.T) {
	svc, err := NewService(context.Background(), &stubChatModel{reply: "많이 힘들었겠다. 곁에 있을게."}, false)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	reply := svc.Reply(context.Background(), nil, "우울해", emotionservice.Result{Emotion: "슬픔", Keywords: []string{"우울"}})
	if reply != "많이 힘들었겠다. 곁에 있을게." {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestReplyFallsBackOnModelFailure(t *testing.T) {
	svc, err := NewService(context.Background(), &stubChatModel{err: errors.New("rate limited")}, false)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	reply := svc.Reply(context.Background(), nil, "우울해", emotionservice.Result{Emotion: "슬픔"})
	if reply != FallbackFor("슬픔") {
		t.Fatalf("expected fallback line, got %s", reply)
	}
}

func TestFallbackForUnknownLabel(t *testing.T) {
	if FallbackFor("중립") != FallbackReply {
		t.Fatal("neutral label should use the default line")
	}
	if FallbackFor("뜬금없는라벨") != FallbackReply {
		t.Fatal("unknown label should use the default line")
	}
	if FallbackFor("슬픔") == FallbackReply {
		t.Fatal("known label should use its own line")
	}
}

func TestStreamReplyRequiresStreaming(t *testing.T) {
	svc, err := NewService(context.Background(), &stubChatModel{reply: "ok"}, false)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.StreamReply(context.Background(), nil, "안녕", emotionservice.Result{Emotion: "중립"}); err == nil {
		t.Fatal("expected error when streaming disabled")
	}
}

func TestBuildSystemPromptIncludesEmotionAndContext(t *testing.T) {
	turns := []chat.Turn{
		{Message: "오늘 발표 망했어", Emotion: "슬픔"},
		{Message: "그래도 끝나서 후련해", Emotion: "기쁨"},
	}
	prompt := buildSystemPrompt(turns, emotionservice.Result{Emotion: "슬픔", Keywords: []string{"우울"}})

	for _, want := range []string{"슬픔", "우울", "오늘 발표 망했어", "그래도 끝나서 후련해"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestFormatContextWindowsNewestTurns(t *testing.T) {
	turns := make([]chat.Turn, 0, 15)
	for i := 0; i < 15; i++ {
		turns = append(turns, chat.Turn{Message: strings.Repeat("a", i+1)})
	}

	formatted := formatContext(turns, 10)
	lines := strings.Split(formatted, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[9], strings.Repeat("a", 15)) {
		t.Fatalf("newest turn missing from window: %s", lines[9])
	}
}
