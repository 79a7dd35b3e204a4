package model

// Category groups bookmarked messages.
type Category struct {
	ID          int64     `json:"category_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at"`
}

// CategoryInput is the body for creating or updating a category.
type CategoryInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CategoryQuery selects a page of categories.
type CategoryQuery struct {
	Page     int
	PageSize int
	Search   string
}

// CategoryPage is one page of categories.
type CategoryPage struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// Bookmark is a saved chat message.
type Bookmark struct {
	ID         int64     `json:"bookmark_id"`
	UserID     int64     `json:"user_id"`
	MessageID  int64     `json:"messages_id"`
	CategoryID *int64    `json:"category_id"`
	CreatedAt  Timestamp `json:"created_at"`
}

// BookmarkInput saves a message, optionally into a category.
type BookmarkInput struct {
	MessageID  int64  `json:"messages_id"`
	CategoryID *int64 `json:"category_id"`
}

// BookmarkQuery selects a page of bookmarks. CategoryID 0 means all categories.
type BookmarkQuery struct {
	Page       int
	PageSize   int
	CategoryID int64
}

// BookmarkPage is one page of bookmarks.
type BookmarkPage struct {
	Bookmarks  []Bookmark `json:"bookmarks"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
