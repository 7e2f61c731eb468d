package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID mints a conversation session identifier. The timestamp makes
// ids sortable in ad-hoc queries; the uuid fragment keeps two processes
// started in the same second apart.
func NewSessionID() string {
	return fmt.Sprintf("session_%s_%s",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8])
}
