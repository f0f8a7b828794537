package chat

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized means the current user is not a member of the group the
// operation targets, or no user is authenticated at all.
var ErrNotAuthorized = errors.New("not authorized")

type ErrNotFound struct {
	Type string
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("type '%s' with id '%s' not found", e.Type, e.ID)
}
