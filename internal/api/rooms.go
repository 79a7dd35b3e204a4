package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alphabot/alphabot-client/internal/model"
)

// ResolveRoomByStock upserts the caller's room for a ticker. The backend
// returns the active room when one exists, restores a trashed one, or creates
// a new room titled with titleHint.
func (c *Client) ResolveRoomByStock(ctx context.Context, ticker, titleHint string) (*model.ResolvedRoom, error) {
	q := url.Values{}
	if titleHint != "" {
		q.Set("title", titleHint)
	}
	var out model.ResolvedRoom
	err := c.do(ctx, request{
		op:     "resolve_room",
		method: http.MethodPut,
		path:   "/api/v1/chats/by-stock/" + url.PathEscape(ticker),
		query:  q,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRooms returns the caller's rooms in server order.
func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	err := c.do(ctx, request{
		op:     "list_rooms",
		method: http.MethodGet,
		path:   "/api/rooms",
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRoom applies a partial update to a room.
func (c *Client) UpdateRoom(ctx context.Context, roomID int64, upd model.UpdateRoomRequest) (*model.Room, error) {
	var out model.Room
	err := c.do(ctx, request{
		op:     "update_room",
		method: http.MethodPatch,
		path:   fmt.Sprintf("/api/rooms/%d", roomID),
		body:   upd,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
