package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	maxCategoryTitle       = 50
	maxCategoryDescription = 200
)

// LibraryBackend is the part of the backend API behind bookmarks and
// categories.
type LibraryBackend interface {
	ListCategories(ctx context.Context, q model.CategoryQuery) (*model.CategoryPage, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListBookmarks(ctx context.Context, q model.BookmarkQuery) (*model.BookmarkPage, error)
	CreateBookmark(ctx context.Context, in model.BookmarkInput) (*model.Bookmark, error)
	MoveBookmark(ctx context.Context, id int64, categoryID *int64) (*model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
}

// LibraryService manages bookmarked messages and their categories.
type LibraryService struct {
	backend LibraryBackend
	guard   *boundary
}

// NewLibraryService creates a library service.
func NewLibraryService(backend LibraryBackend, creds credentials.Provider, hub *Hub, log *logger.Logger) *LibraryService {
	return &LibraryService{
		backend: backend,
		guard:   newBoundary(creds, hub, log),
	}
}

// ListCategories returns one page of categories.
func (s *LibraryService) ListCategories(ctx context.Context, q model.CategoryQuery) (*model.CategoryPage, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	q.Search = strings.TrimSpace(q.Search)
	page, err := s.backend.ListCategories(ctx, q)
	if err != nil {
		return nil, s.guard.classify(ctx, "list_categories", ErrRequestFailed, "", err)
	}
	return page, nil
}

// GetCategory returns one category.
func (s *LibraryService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := s.backend.GetCategory(ctx, id)
	if err != nil {
		return nil, s.guard.classify(ctx, "get_category", ErrRequestFailed, "", err)
	}
	return cat, nil
}

// CreateCategory adds a category.
func (s *LibraryService) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	in, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	cat, err := s.backend.CreateCategory(ctx, in)
	if err != nil {
		return nil, s.guard.classify(ctx, "create_category", ErrRequestFailed, "title", err)
	}
	return cat, nil
}

// UpdateCategory replaces a category's title and description.
func (s *LibraryService) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (*model.Category, error) {
	in, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	cat, err := s.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		return nil, s.guard.classify(ctx, "update_category", ErrRequestFailed, "title", err)
	}
	return cat, nil
}

// DeleteCategory removes a category.
func (s *LibraryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return s.guard.classify(ctx, "delete_category", ErrRequestFailed, "", err)
	}
	return nil
}

// ListBookmarks returns one page of bookmarks.
func (s *LibraryService) ListBookmarks(ctx context.Context, q model.BookmarkQuery) (*model.BookmarkPage, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	if q.CategoryID < 0 {
		q.CategoryID = 0
	}
	page, err := s.backend.ListBookmarks(ctx, q)
	if err != nil {
		return nil, s.guard.classify(ctx, "list_bookmarks", ErrRequestFailed, "", err)
	}
	return page, nil
}

// SaveBookmark bookmarks a message. Messages that are still provisional
// have no server identity and cannot be saved.
func (s *LibraryService) SaveBookmark(ctx context.Context, msg model.Message, categoryID *int64) (*model.Bookmark, error) {
	id, ok := msg.Confirmed()
	if !ok {
		return nil, ErrProvisionalMessage
	}
	bm, err := s.backend.CreateBookmark(ctx, model.BookmarkInput{MessageID: int64(id), CategoryID: categoryID})
	if err != nil {
		return nil, s.guard.classify(ctx, "create_bookmark", ErrRequestFailed, "", err)
	}
	return bm, nil
}

// MoveBookmark files a bookmark under another category, or none.
func (s *LibraryService) MoveBookmark(ctx context.Context, id int64, categoryID *int64) (*model.Bookmark, error) {
	bm, err := s.backend.MoveBookmark(ctx, id, categoryID)
	if err != nil {
		return nil, s.guard.classify(ctx, "move_bookmark", ErrRequestFailed, "", err)
	}
	return bm, nil
}

// DeleteBookmark removes a bookmark.
func (s *LibraryService) DeleteBookmark(ctx context.Context, id int64) error {
	if err := s.backend.DeleteBookmark(ctx, id); err != nil {
		return s.guard.classify(ctx, "delete_bookmark", ErrRequestFailed, "", err)
	}
	return nil
}

func validateCategory(in model.CategoryInput) (model.CategoryInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, &FieldError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(in.Title) > maxCategoryTitle {
		return in, &FieldError{Field: "title", Message: "is too long"}
	}
	if utf8.RuneCountInString(in.Description) > maxCategoryDescription {
		return in, &FieldError{Field: "description", Message: "is too long"}
	}
	return in, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
