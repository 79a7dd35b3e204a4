package middleware

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

// MaxContentBytes bounds a chat message.
const MaxContentBytes = 100000

// ValidateMessageContent validates message content. Whitespace-only text
// is left to the session controller.
func ValidateMessageContent(content string) error {
	if len(content) > MaxContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ParseID parses a positive numeric path ID.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid ID format")
	}
	return id, nil
}

// ValidateTitle validates a title's encoding. Length rules live with the
// owning service.
func ValidateTitle(title string) error {
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}
