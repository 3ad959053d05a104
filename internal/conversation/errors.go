package conversation

import "errors"

// ErrNotFound is returned when the requested conversation does not exist.
var ErrNotFound = errors.New("conversation not found")
