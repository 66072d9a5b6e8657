package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/ports"
)

// Store is an in-memory credential store for tests and ephemeral use.
type Store struct {
	mu    sync.RWMutex
	creds ports.Credentials
	held  bool
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Write(ctx context.Context, creds ports.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !creds.Complete() {
		return errors.New("refusing to persist partial credentials")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	s.held = true
	return nil
}

func (s *Store) Read(ctx context.Context) (ports.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return ports.Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.held {
		return ports.Credentials{}, domain.ErrNoCredentials
	}
	return s.creds, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = ports.Credentials{}
	s.held = false
	return nil
}
