package out

import (
	"context"

	"watchtrack/internal/modules/session/domain"
)

// StateStore persists the login record. Load of a missing record returns a
// zero StoredState.
type StateStore interface {
	Load(ctx context.Context) (domain.StoredState, error)
	Save(ctx context.Context, state domain.StoredState) error
	Clear(ctx context.Context) error
	// Watch calls onChange with every externally visible change until ctx ends.
	Watch(ctx context.Context, onChange func(domain.StoredState)) error
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (sessionID string, ok bool, err error)
	Logout(ctx context.Context, sessionID string) error
}
