package page

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidCursor reports a pagination token this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

const cursorPrefix = "pos:"

// EncodeCursor turns a record position into an opaque token. Clients must
// treat the result as a black box.
func EncodeCursor(position string) string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + position))
}

// DecodeCursor is the inverse of EncodeCursor. Anything EncodeCursor could
// not have produced yields ErrInvalidCursor.
func DecodeCursor(cursor string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ErrInvalidCursor
	}

	position, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok || position == "" {
		return "", ErrInvalidCursor
	}
	return position, nil
}
