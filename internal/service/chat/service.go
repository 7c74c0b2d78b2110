package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	chatmodel "github.com/maumchat/backend/internal/model/chat"
	"github.com/maumchat/backend/internal/service/ai"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
	"github.com/maumchat/backend/internal/store"
)

var ErrUserRequired = errors.New("user id is required")

// List key prefixes; one context list and one emotion history list per user.
const (
	contextKeyPrefix = "chat:context:"
	historyKeyPrefix = "chat:emotion:"
)

// Config tunes the rolling windows.
type Config struct {
	// ContextWindow is how many recent turns are surfaced as context.
	ContextWindow int
	// RetentionLimit caps each per-user list; older entries are trimmed
	// away and become unreachable.
	RetentionLimit int
	// HistoryDefaultLimit is used when a history query passes no limit.
	HistoryDefaultLimit int
}

const (
	defaultContextWindow  = 10
	defaultRetentionLimit = 200
	defaultHistoryLimit   = 10
)

// Service runs the message pipeline: classify, persist to both lists, fetch
// context, generate a reply.
type Service struct {
	lists      store.ListStore
	emotionSvc *emotionservice.Service
	aiSvc      *ai.Service

	contextWindow  int
	retentionLimit int
	historyLimit   int
}

// NewService wires the pipeline. aiSvc may be nil; replies then use the
// fixed fallback line.
func NewService(lists store.ListStore, emotionSvc *emotionservice.Service, aiSvc *ai.Service, cfg Config) *Service {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = defaultContextWindow
	}
	if cfg.RetentionLimit <= 0 {
		cfg.RetentionLimit = defaultRetentionLimit
	}
	if cfg.HistoryDefaultLimit <= 0 {
		cfg.HistoryDefaultLimit = defaultHistoryLimit
	}
	return &Service{
		lists:          lists,
		emotionSvc:     emotionSvc,
		aiSvc:          aiSvc,
		contextWindow:  cfg.ContextWindow,
		retentionLimit: cfg.RetentionLimit,
		historyLimit:   cfg.HistoryDefaultLimit,
	}
}

// Exchange is the outcome of one handled message.
type Exchange struct {
	Context  []chatmodel.Turn `json:"context"`
	Reply    string           `json:"reply"`
	Emotion  string           `json:"emotion"`
	Keywords []string         `json:"keywords"`
}

// HandleMessage classifies the message, records it, and produces a reply
// alongside the rolling context. Classification never fails; a store failure
// aborts the request with store.ErrUnavailable rather than dropping the
// write silently.
func (s *Service) HandleMessage(ctx context.Context, userID, message string) (*Exchange, error) {
	classification, turns, err := s.Record(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	reply := ai.FallbackFor(classification.Emotion)
	if s.aiSvc != nil {
		reply = s.aiSvc.Reply(ctx, turns, message, classification)
	}

	return &Exchange{
		Context:  turns,
		Reply:    reply,
		Emotion:  classification.Emotion,
		Keywords: classification.Keywords,
	}, nil
}

// Record classifies one message, appends the classified turn to the context
// and emotion history lists, and returns the classification with the
// refreshed context window (current turn included, most-recent-last).
func (s *Service) Record(ctx context.Context, userID, message string) (emotionservice.Result, []chatmodel.Turn, error) {
	if userID == "" {
		return emotionservice.Result{}, nil, ErrUserRequired
	}

	classification := s.emotionSvc.Classify(ctx, message)
	if classification.Source == emotionservice.SourceRule && classification.FallbackStage != emotionservice.StageInit {
		log.Printf("[chat] user=%s classified via rule fallback at stage=%s", userID, classification.FallbackStage)
	}

	turn := chatmodel.NewTurn(userID, message, classification.Emotion, classification.Keywords)
	data, err := json.Marshal(turn)
	if err != nil {
		return emotionservice.Result{}, nil, fmt.Errorf("encode turn: %w", err)
	}

	if err := s.appendAndTrim(ctx, contextKeyPrefix+userID, data); err != nil {
		return emotionservice.Result{}, nil, fmt.Errorf("%w: context append: %v", store.ErrUnavailable, err)
	}
	if err := s.appendAndTrim(ctx, historyKeyPrefix+userID, data); err != nil {
		return emotionservice.Result{}, nil, fmt.Errorf("%w: history append: %v", store.ErrUnavailable, err)
	}

	turns, err := s.RecentTurns(ctx, userID)
	if err != nil {
		return emotionservice.Result{}, nil, err
	}
	return classification, turns, nil
}

func (s *Service) appendAndTrim(ctx context.Context, key string, data []byte) error {
	if err := s.lists.Append(ctx, key, data); err != nil {
		return err
	}
	// A failed trim only delays eviction; the append already succeeded.
	if err := s.lists.Trim(ctx, key, s.retentionLimit); err != nil {
		log.Printf("[chat] trim failed for %s: %v", key, err)
	}
	return nil
}

// RecentTurns returns the context window for a user, oldest-first.
func (s *Service) RecentTurns(ctx context.Context, userID string) ([]chatmodel.Turn, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.readTurns(ctx, contextKeyPrefix+userID, s.contextWindow)
}

// RecentRecords returns at most limit emotion records for a user in
// chronological order, oldest of the returned window first. limit <= 0 uses
// the configured default.
func (s *Service) RecentRecords(ctx context.Context, userID string, limit int) ([]chatmodel.Turn, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.readTurns(ctx, historyKeyPrefix+userID, limit)
}

func (s *Service) readTurns(ctx context.Context, key string, limit int) ([]chatmodel.Turn, error) {
	window, err := s.lists.Last(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: range read: %v", store.ErrUnavailable, err)
	}

	turns := make([]chatmodel.Turn, 0, len(window))
	for _, entry := range window {
		var turn chatmodel.Turn
		if err := json.Unmarshal(entry, &turn); err != nil {
			log.Printf("[chat] skipping undecodable entry in %s: %v", key, err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
