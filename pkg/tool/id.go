package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered id, used as the primary key for
// payment rows and webhook log entries.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
