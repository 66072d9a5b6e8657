package ports

import (
	"context"

	"github.com/fcastdev/fcast-cli/internal/domain"
)

// Credentials is the durable three-slot credential set. The slots are
// written and cleared together; a store must never expose a partial set.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
}

func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.User.ID != ""
}

// CredentialStore persists the active session's credentials across process
// restarts. Read returns domain.ErrNoCredentials when nothing (or anything
// partial or unreadable) is stored; storage trouble degrades to absent
// rather than failing the caller.
type CredentialStore interface {
	Write(ctx context.Context, creds Credentials) error
	Read(ctx context.Context) (Credentials, error)
	Clear(ctx context.Context) error
}
