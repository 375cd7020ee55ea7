package store

import "errors"

// ErrNotFound is returned when a record does not exist, including when a
// moderation transition targets an ad that already left the pending state.
var ErrNotFound = errors.New("not found")
