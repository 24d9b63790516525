package testutil

import (
	"context"
	"errors"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/storage"
)

// ErrSessionStoreDown is returned by SessionFailingStorage
var ErrSessionStoreDown = errors.New("session store unavailable")

// SessionFailingStorage stores runs normally but refuses to save sessions
type SessionFailingStorage struct {
	storage.Storage
}

// SaveSession always fails
func (s SessionFailingStorage) SaveSession(ctx context.Context, session *model.Session) error {
	return ErrSessionStoreDown
}
