package utils

import "github.com/google/uuid"

// ParseOrNewID accepts a caller-chosen id or mints a fresh one when the
// caller left it blank. A route-supplied conversation id becomes the
// row's primary key verbatim, so the first send deterministically
// creates that exact conversation.
func ParseOrNewID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
