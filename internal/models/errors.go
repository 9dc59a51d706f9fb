package models

import "errors"

// ErrNotFound is wrapped by every repository lookup for an absent id.
var ErrNotFound = errors.New("not found")
