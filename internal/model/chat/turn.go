package chat

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one classified chat message. The same flat shape is appended to
// both the per-user context list and the per-user emotion history list, so
// the analytics trail can be read without a join against the context.
type Turn struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Emotion   string   `json:"emotion"`
	Keywords  []string `json:"keywords"`
}

// NewTurn assigns a turn ID and stamps the classified message with the
// current UTC time.
func NewTurn(userID, message, emotion string, keywords []string) Turn {
	if keywords == nil {
		keywords = []string{}
	}
	return Turn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
		Emotion:   emotion,
		Keywords:  keywords,
	}
}
