package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/repositories"
	"github.com/desertthunder/lovesync/internal/shared"
)

// Store caches a session key between runs.
type Store interface {
	// Load returns the cached key or an error wrapping [shared.ErrNoSession].
	Load(ctx context.Context) (string, error)

	// Save replaces the cached key.
	Save(ctx context.Context, key string) error

	// Clear forgets the cached key. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// String describes where the key is kept.
	String() string
}

// FileStore keeps the raw key in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s does not exist", shared.ErrNoSession, f.path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", shared.ErrNoSession, f.path)
	}
	return key, nil
}

func (f *FileStore) Save(ctx context.Context, key string) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	if err := os.WriteFile(f.path, []byte(key), 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (f *FileStore) String() string {
	return "file " + f.path
}

// SQLiteStore keeps the key in the sessions table, keyed by service and username.
type SQLiteStore struct {
	repo     *repositories.SessionRepository
	service  string
	username string
}

// NewSQLiteStore creates a [SQLiteStore] for username on service.
func NewSQLiteStore(repo *repositories.SessionRepository, service, username string) *SQLiteStore {
	return &SQLiteStore{repo: repo, service: service, username: username}
}

func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	session, err := s.repo.Get(ctx, s.service, s.username)
	if err != nil {
		return "", err
	}
	return session.SessionKey, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string) error {
	return s.repo.Upsert(ctx, &models.Session{Service: s.service, Username: s.username, SessionKey: key})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.service, s.username); err != nil && !errors.Is(err, shared.ErrNoSession) {
		return err
	}
	return nil
}

func (s *SQLiteStore) String() string {
	return fmt.Sprintf("database %s/%s", s.service, s.username)
}
