package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	storeDirMode    = 0o700
	storeFileMode   = 0o600
	credentialsFile = "credentials.toml"
	tempFilePattern = ".credentials-*.toml.tmp"
)

// Store keeps the three credential slots in one TOML document so they are
// always persisted and cleared as a unit.
type Store struct {
	path string
	mu   sync.RWMutex
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{path: filepath.Join(filepath.Clean(root), credentialsFile)}
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

	return s.writeSchema(toSchema(creds))
}

func (s *Store) Read(ctx context.Context) (ports.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return ports.Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		// Absent or unreadable storage both degrade to anonymous.
		return ports.Credentials{}, domain.ErrNoCredentials
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return ports.Credentials{}, domain.ErrNoCredentials
	}
	if err := file.validateVersion(); err != nil {
		return ports.Credentials{}, domain.ErrNoCredentials
	}

	creds := fromSchema(file)
	if !creds.Complete() {
		return ports.Credentials{}, domain.ErrNoCredentials
	}

	return creds, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear credentials file: %w", err)
	}

	return nil
}

func (s *Store) writeSchema(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp credentials file: %w", err)
	}

	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp credentials file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp credentials file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}

	cleanup = false
	return nil
}
