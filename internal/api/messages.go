package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alphabot/alphabot-client/internal/model"
)

// MessageRecord is a message as stored by the backend.
type MessageRecord struct {
	ID        int64           `json:"messages_id"`
	RoomID    int64           `json:"chat_id"`
	UserID    int64           `json:"user_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	CreatedAt model.Timestamp `json:"created_at"`
}

// Message converts the record into a confirmed transcript entry. Records
// without a role are user messages, as in the backend's column default.
func (r MessageRecord) Message() model.Message {
	role := model.RoleUser
	if r.Role == string(model.RoleAssistant) {
		role = model.RoleAssistant
	}
	return model.Message{
		Ref:       model.ConfirmedID(r.ID),
		RoomID:    r.RoomID,
		Role:      role,
		Text:      r.Content,
		CreatedAt: r.CreatedAt.Time,
	}
}

// Completion is the confirmed pair produced by one chat completion.
type Completion struct {
	UserMessage      MessageRecord `json:"user_message"`
	AssistantMessage MessageRecord `json:"assistant_message"`
}

type completionRequest struct {
	Content string `json:"content"`
}

// ListMessages returns a room's messages in ascending order. A non-zero
// afterID returns only messages newer than it.
func (c *Client) ListMessages(ctx context.Context, roomID, afterID int64) ([]MessageRecord, error) {
	q := url.Values{}
	if afterID > 0 {
		q.Set("last_message_id", strconv.FormatInt(afterID, 10))
	}
	var out []MessageRecord
	err := c.do(ctx, request{
		op:     "list_messages",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/rooms/%d/messages", roomID),
		query:  q,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCompletion stores the user's message and returns it together with
// the assistant reply.
func (c *Client) CreateCompletion(ctx context.Context, roomID int64, content string) (*Completion, error) {
	var out Completion
	err := c.do(ctx, request{
		op:     "chat_completion",
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/rooms/%d/chat-completions", roomID),
		body:   completionRequest{Content: content},
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
