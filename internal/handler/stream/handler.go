package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	chatmodel "github.com/maumchat/backend/internal/model/chat"
	"github.com/maumchat/backend/internal/service/ai"
	chatservice "github.com/maumchat/backend/internal/service/chat"
	emotionservice "github.com/maumchat/backend/internal/service/emotion"
	"github.com/maumchat/backend/pkg/utils"
)

// Handler streams replies over Server-Sent Events. The message is recorded
// and classified exactly as on the non-streaming endpoint before the first
// chunk goes out.
type Handler struct {
	aiSvc   *ai.Service
	chatSvc *chatservice.Service
}

// New creates the stream handler. aiSvc may be nil; the stream then carries
// the fixed fallback line as a single chunk.
func New(aiSvc *ai.Service, chatSvc *chatservice.Service) *Handler {
	return &Handler{aiSvc: aiSvc, chatSvc: chatSvc}
}

// HandleStreamRequest records the message and streams the reply.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, userID, message string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	classification, turns, err := h.chatSvc.Record(ctx, userID, message)
	if err != nil {
		return err
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", map[string]any{
		"emotion":  classification.Emotion,
		"keywords": classification.Keywords,
	})

	if err := h.streamReply(ctx, w, flusher, turns, message, classification); err != nil {
		log.Printf("[stream] reply stream failed, sending fallback line: %v", err)
		utils.SendSSEEvent(w, flusher, "chunk", map[string]string{"content": ai.FallbackFor(classification.Emotion)})
	}

	utils.SendSSEEvent(w, flusher, "end", map[string]bool{"finished": true})
	return nil
}

func (h *Handler) streamReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, turns []chatmodel.Turn, message string, classification emotionservice.Result) error {
	if h.aiSvc == nil {
		return errors.New("ai service unavailable")
	}

	stream, err := h.aiSvc.StreamReply(ctx, turns, message, classification)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		utils.SendSSEEvent(w, flusher, "chunk", map[string]string{"content": chunk.Content})
	}
}
