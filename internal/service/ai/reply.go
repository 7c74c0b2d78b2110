package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/maumchat/backend/internal/model/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
)

// FallbackReply is returned whenever reply generation is unavailable or
// fails and no emotion-specific line applies. A conversational message,
// never an error code, keeps the chat flow intact.
const FallbackReply = "지금은 답을 만들지 못했어요. 그래도 네 이야기는 잘 듣고 있어, 편하게 계속 말해줘."

// fallbackByEmotion keeps the canned line empathetic even when the model is
// down, keyed by the same labels as toneByEmotion.
var fallbackByEmotion = map[string]string{
	"기쁨":       "좋은 일이 있었구나! 같이 기뻐하고 싶어, 더 들려줘.",
	"슬픔":       "많이 힘들었겠다. 네 마음 곁에 있을게, 천천히 이야기해줘.",
	"화남":       "그럴 만했네, 화날 수 있어. 네 편에서 듣고 있을게.",
	"불안":       "불안했겠다. 괜찮아, 여기서 천천히 같이 정리해보자.",
	"positive": "좋은 기운이 느껴져! 그 이야기 더 들려줘.",
	"negative": "마음이 무거웠겠다. 네 이야기 잘 듣고 있어.",
	"mixed":    "여러 감정이 섞여 있구나. 어떤 마음이든 그대로 말해줘.",
}

// FallbackFor returns the canned reply for a detected emotion, defaulting to
// FallbackReply for unknown or neutral labels.
func FallbackFor(emotion string) string {
	if line, ok := fallbackByEmotion[emotion]; ok {
		return line
	}
	return FallbackReply
}

// Service generates empathetic replies conditioned on the detected emotion
// and the rolling conversation context.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	streaming bool
}

// NewService compiles the reply chain on top of an existing chat model.
func NewService(ctx context.Context, chatModel model.ChatModel, streaming bool) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable, streaming: streaming}, nil
}

// StreamingEnabled reports whether SSE streaming replies are configured.
func (s *Service) StreamingEnabled() bool {
	return s != nil && s.streaming
}

// Reply generates one empathetic reply. Generation failures degrade to the
// fixed fallback line; callers never see an error.
func (s *Service) Reply(ctx context.Context, turns []chat.Turn, message string, classification emotionservice.Result) string {
	if s == nil || s.chain == nil {
		return FallbackFor(classification.Emotion)
	}

	response, err := s.chain.Invoke(ctx, buildChainInput(turns, message, classification))
	if err != nil {
		log.Printf("[ai] reply generation failed, using fallback line: %v", err)
		return FallbackFor(classification.Emotion)
	}
	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		return FallbackFor(classification.Emotion)
	}
	return reply
}

// StreamReply streams reply chunks for the SSE endpoint. Unlike Reply it
// returns the error; the handler emits the fallback line as a single chunk.
func (s *Service) StreamReply(ctx context.Context, turns []chat.Turn, message string, classification emotionservice.Result) (*schema.StreamReader[*schema.Message], error) {
	if s == nil || s.chain == nil {
		return nil, fmt.Errorf("reply chain unavailable")
	}
	if !s.streaming {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, buildChainInput(turns, message, classification))
	if err != nil {
		return nil, fmt.Errorf("failed to stream reply chain output: %w", err)
	}
	return stream, nil
}

func buildChainInput(turns []chat.Turn, message string, classification emotionservice.Result) map[string]any {
	return map[string]any{
		"system": buildSystemPrompt(turns, classification),
		"query":  message,
	}
}

// buildSystemPrompt folds the recent context window and the detected emotion
// into the counselor persona prompt.
func buildSystemPrompt(turns []chat.Turn, classification emotionservice.Result) string {
	var builder strings.Builder
	builder.WriteString(counselorSystemPrompt)

	builder.WriteString("\n\n감지된 사용자 감정: ")
	builder.WriteString(classification.Emotion)
	if len(classification.Keywords) > 0 {
		builder.WriteString(" (감정 단어: ")
		builder.WriteString(strings.Join(classification.Keywords, ", "))
		builder.WriteString(")")
	}

	if tone, ok := toneByEmotion[classification.Emotion]; ok {
		builder.WriteString("\n답변 어조: ")
		builder.WriteString(tone)
	} else {
		builder.WriteString("\n답변 어조: 자연스럽고 다정한 말투를 유지하세요.")
	}

	if formatted := formatContext(turns, contextPromptLimit); formatted != "" {
		builder.WriteString("\n\n최근 대화:\n")
		builder.WriteString(formatted)
	}

	return builder.String()
}

const contextPromptLimit = 10

// formatContext renders the newest turns as prompt lines, oldest first.
func formatContext(turns []chat.Turn, limit int) string {
	if len(turns) == 0 {
		return ""
	}
	start := len(turns) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for i, turn := range turns[start:] {
		content := strings.TrimSpace(turn.Message)
		if content == "" {
			continue
		}
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("사용자")
		if turn.Emotion != "" {
			builder.WriteString(fmt.Sprintf("(%s)", turn.Emotion))
		}
		builder.WriteString(": ")
		builder.WriteString(content)
	}
	return builder.String()
}

const counselorSystemPrompt = "당신은 사용자의 감정을 깊이 공감해주는 한국어 대화 상대입니다. 짧고 따뜻한 한두 문장으로 답하고, 훈계하거나 해결책을 강요하지 마세요. 사용자의 표현을 되짚어 주면서 감정을 인정해 주세요."

var toneByEmotion = map[string]string{
	"기쁨":       "밝고 경쾌하게, 함께 기뻐해 주세요.",
	"슬픔":       "부드럽고 낮은 어조로 충분히 공감하고 위로해 주세요.",
	"화남":       "차분하게 감정을 받아주고, 먼저 이해를 표현하세요.",
	"불안":       "안심시키는 말투로 천천히, 안정감을 전해 주세요.",
	"중립":       "편안하고 담백하게 대화를 이어가세요.",
	"positive": "밝고 긍정적인 에너지를 함께 나누세요.",
	"negative": "조용히 곁에 있어주는 느낌으로 위로해 주세요.",
	"mixed":    "복잡한 마음을 그대로 인정해 주고, 서두르지 마세요.",
	"neutral":  "편안하고 자연스러운 어조를 유지하세요.",
}
