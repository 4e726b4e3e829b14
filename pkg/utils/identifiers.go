package utils

import (
	"errors"
	"strings"
)

// ValidateUserID checks a user id taken from the command line before it is
// placed in a request path. It must be non-empty and must not contain path
// separators or "..".
func ValidateUserID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return errors.New("user id is required")
	}
	if trimmed != id {
		return errors.New("user id must not have surrounding whitespace")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return errors.New("user id must not contain path separators or '..'")
	}
	return nil
}
