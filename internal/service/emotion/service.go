package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/maumchat/backend/internal/analysis/emotion"
)

// Source tags which path produced a classification.
type Source string

const (
	SourceRule Source = "rule"
	SourceLLM  Source = "llm"
)

// Stage names the classifier stage at which a request degraded to the rule
// matcher. Each fallback transition is an explicit, testable branch.
type Stage string

const (
	// StageInit: no usable model client was configured.
	StageInit Stage = "init"
	// StageInvoke: the model call itself failed (network, auth, timeout).
	StageInvoke Stage = "invoke"
	// StageExtract: the response was empty or carried no parseable JSON.
	StageExtract Stage = "extract"
)

// Result is a finished classification. Emotion is never empty and Keywords
// is never nil. FallbackStage is set only when Source is SourceRule.
type Result struct {
	Emotion       string
	Keywords      []string
	Source        Source
	FallbackStage Stage
}

// Config controls the classifier service.
type Config struct {
	Enabled bool
}

// Service classifies message tone. It makes a single model attempt per
// request - no retries against the paid, rate-limited dependency - and a
// failure at any stage degrades to the deterministic local rule matcher
// instead of surfacing an error. Classification itself can never fail.
type Service struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
	rules      *analysis.RuleTable
}

// NewService creates the classifier. chatModel may be nil (or cfg.Enabled
// false), in which case every request takes the rule path. The rule table is
// shared read-only across requests; restart with a freshly loaded table to
// pick up retrained rules.
func NewService(ctx context.Context, chatModel model.ChatModel, rules *analysis.RuleTable, cfg Config) (*Service, error) {
	if rules == nil {
		rules = analysis.NewRuleTable()
	}
	svc := &Service{rules: rules}

	if !cfg.Enabled || chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM path is available.
func (s *Service) Enabled() bool {
	return s != nil && s.classifier != nil
}

// Rules exposes the loaded rule table.
func (s *Service) Rules() *analysis.RuleTable {
	return s.rules
}

// Classify runs the classification state machine: Init -> Invoke -> Extract
// -> Validate. Any parseable JSON is accepted as-is; the emotion label is
// passed through without checking it against the prompt's label set.
func (s *Service) Classify(ctx context.Context, message string) Result {
	if !s.Enabled() {
		return s.ruleResult(message, StageInit)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"message": message})
	if err != nil {
		log.Printf("[emotion] classifier invoke failed, using rule matcher: %v", err)
		return s.ruleResult(message, StageInvoke)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Printf("[emotion] classifier returned empty response, using rule matcher")
		return s.ruleResult(message, StageExtract)
	}

	payload, err := extractPayload(msg.Content)
	if err != nil {
		log.Printf("[emotion] classifier output parse failed, using rule matcher: %v", err)
		return s.ruleResult(message, StageExtract)
	}

	emotion := strings.TrimSpace(payload.Emotion)
	if emotion == "" {
		emotion = analysis.LabelNeutral
	}

	return Result{
		Emotion:  emotion,
		Keywords: normalizeKeywords(payload.Keywords),
		Source:   SourceLLM,
	}
}

func (s *Service) ruleResult(message string, stage Stage) Result {
	label, keywords := s.rules.Classify(message)
	return Result{
		Emotion:       label,
		Keywords:      keywords,
		Source:        SourceRule,
		FallbackStage: stage,
	}
}

type classifierPayload struct {
	Emotion  string `json:"emotion"`
	Keywords any    `json:"keywords"`
}

// extractPayload parses the model output as JSON, falling back to the
// substring between the first '{' and the last '}' when the model wrapped
// the object in prose or code fences.
func extractPayload(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed), payload); err == nil {
		return payload, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// normalizeKeywords coerces the loosely typed keywords field into a string
// slice: a bare string becomes a one-element slice, a JSON array keeps its
// string elements, anything else becomes empty.
func normalizeKeywords(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		keywords := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				keywords = append(keywords, s)
			}
		}
		return keywords
	default:
		return []string{}
	}
}

const classifierSystemPrompt = "You analyze the user's Korean message and respond with only a compact JSON object containing 'emotion' and 'keywords'. Use simple labels such as '기쁨', '슬픔', '화남', '불안', '중립'. 'keywords' is an array of the words in the message that carry the emotion. Do not output anything besides the JSON object."
