package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newID returns a random UUIDv4 string.
func newID() string {
	return uuid.NewString()
}

// now is the timestamp written to created_at/updated_at. Timestamps are
// set from Go rather than CURRENT_TIMESTAMP for sub-second ordering.
func now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// encodeJSON stores a map column; nil becomes "{}".
func encodeJSON[M ~map[string]V, V any](m M) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}

// decodeJSON reads a map column back.
func decodeJSON[V any](raw string) (map[string]V, error) {
	m := map[string]V{}
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to decode json column: %w", err)
	}
	return m, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
