package redis

import (
	"fmt"

	"github.com/mcoot/mlctf/internal/model"
)

// Key prefix for all mission data
const keyPrefix = "mlctf"

// Key generation functions for each entity type

// runKey returns the Redis key for a Run
func runKey(id model.RunID) string {
	return fmt.Sprintf("%s:run:%s", keyPrefix, id)
}

// sessionKey returns the Redis key for a Session
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}
