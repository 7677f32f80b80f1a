package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrAlreadySubmitted is returned when a submitted attempt would be written again
var ErrAlreadySubmitted = errors.New("attempt already submitted")

// IsNotFoundError reports whether err wraps gorm.ErrRecordNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
