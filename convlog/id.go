package convlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a new UUIDv7 string. Ids carry their creation time, so
// lexicographic order on ids is creation order.
func NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// EntryTime extracts the creation time embedded in a UUIDv7 entry id.
func EntryTime(id string) (time.Time, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid UUID: %w", err)
	}
	if u.Variant() != uuid.RFC4122 {
		return time.Time{}, fmt.Errorf("UUID %q is not RFC-4122 variant", id)
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("UUID %q is version %d, want 7", id, u.Version())
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), nil
}
