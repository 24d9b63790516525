package storage

import (
	"context"

	"github.com/mcoot/mlctf/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id model.RunID) (*model.Run, error)
	DeleteRun(ctx context.Context, id model.RunID) error

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
