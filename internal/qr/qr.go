package qr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Tokens are opaque strings of the form "{eventID}|{ownerID}|{random}".
// The random component is a v4 UUID, so a token never derives from the
// ticket row id and stays stable-looking across ownership changes until
// a transfer explicitly rotates it.

const separator = "|"

// Mint produces a globally unique ticket token bound to an event and its
// current owner.
func Mint(eventID, ownerID int64) string {
	return fmt.Sprintf("%d%s%d%s%s", eventID, separator, ownerID, separator, uuid.NewString())
}

// Verify checks the structural validity of a token. It does not imply the
// token matches any existing ticket; that lookup belongs to the caller.
func Verify(token string) bool {
	parts := strings.Split(token, separator)
	if len(parts) != 3 {
		return false
	}
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return false
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return false
	}
	if _, err := uuid.Parse(parts[2]); err != nil {
		return false
	}
	return true
}
