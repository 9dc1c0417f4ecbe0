package store

import (
	"fmt"
	"regexp"
)

// MaxUserIDLength is the maximum length of a user ID.
const MaxUserIDLength = 128

// userIDPattern must start and end with an alphanumeric and may contain
// hyphens, underscores and dots in between.
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidateUserID validates a user ID against format rules.
// Returns nil if valid, ErrInvalidUser with details if invalid.
func ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty user ID", ErrInvalidUser)
	}
	if len(id) > MaxUserIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidUser, MaxUserIDLength)
	}
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be alphanumeric with hyphens, underscores or dots)", ErrInvalidUser, id)
	}
	return nil
}
