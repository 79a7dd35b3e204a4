package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alphabot/alphabot-client/internal/model"
)

// ListCategories returns one page of categories.
func (c *Client) ListCategories(ctx context.Context, q model.CategoryQuery) (*model.CategoryPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var out model.CategoryPage
	err := c.do(ctx, request{
		op:     "list_categories",
		method: http.MethodGet,
		path:   "/api/categories",
		query:  params,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCategory returns one category.
func (c *Client) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var out model.Category
	err := c.do(ctx, request{
		op:     "get_category",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/categories/%d", id),
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	var out model.Category
	err := c.do(ctx, request{
		op:     "create_category",
		method: http.MethodPost,
		path:   "/api/categories",
		body:   in,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory replaces a category's fields.
func (c *Client) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (*model.Category, error) {
	var out model.Category
	err := c.do(ctx, request{
		op:     "update_category",
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/categories/%d", id),
		body:   in,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		op:     "delete_category",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/categories/%d", id),
		auth:   true,
	}, nil)
}

// ListBookmarks returns one page of bookmarks, filtered by category unless
// the query's CategoryID is zero.
func (c *Client) ListBookmarks(ctx context.Context, q model.BookmarkQuery) (*model.BookmarkPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.CategoryID != 0 {
		params.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}

	var out model.BookmarkPage
	err := c.do(ctx, request{
		op:     "list_bookmarks",
		method: http.MethodGet,
		path:   "/api/bookmarks",
		query:  params,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBookmark saves a message.
func (c *Client) CreateBookmark(ctx context.Context, in model.BookmarkInput) (*model.Bookmark, error) {
	var out model.Bookmark
	err := c.do(ctx, request{
		op:     "create_bookmark",
		method: http.MethodPost,
		path:   "/api/bookmarks",
		body:   in,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type bookmarkMove struct {
	CategoryID *int64 `json:"category_id"`
}

// MoveBookmark changes a bookmark's category. A nil category uncategorises it.
func (c *Client) MoveBookmark(ctx context.Context, id int64, categoryID *int64) (*model.Bookmark, error) {
	var out model.Bookmark
	err := c.do(ctx, request{
		op:     "move_bookmark",
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/bookmarks/%d", id),
		body:   bookmarkMove{CategoryID: categoryID},
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		op:     "delete_bookmark",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/bookmarks/%d", id),
		auth:   true,
	}, nil)
}
