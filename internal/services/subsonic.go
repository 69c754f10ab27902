package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/delucks/go-subsonic"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

const subsonicClientName = "lovesync"

// subsonicClient is the subset of [subsonic.Client] used here.
type subsonicClient interface {
	Authenticate(password string) error
	GetStarred(parameters map[string]string) (*subsonic.Starred, error)
}

// SubsonicService implements [StarredSource] for Subsonic-compatible servers (Navidrome, Airsonic, ...).
type SubsonicService struct {
	client   subsonicClient
	password string
	version  string

	mu            sync.Mutex
	authenticated bool
}

// NewSubsonicService builds a client from cfg. httpClient may be nil.
//
// Legacy auth sends the password in plain text instead of a salted token. The configured protocol
// version is kept for reporting only, since go-subsonic sends its own.
func NewSubsonicService(cfg shared.SubsonicConfig, httpClient *http.Client) (*SubsonicService, error) {
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: subsonic url, username and password are required", shared.ErrMissingCredentials)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	client := &subsonic.Client{
		Client:       httpClient,
		BaseUrl:      cfg.BaseURL(),
		User:         cfg.Username,
		ClientName:   subsonicClientName,
		PasswordAuth: cfg.LegacyAuth,
	}
	return newSubsonicService(client, cfg.Password, cfg.Version), nil
}

func newSubsonicService(client subsonicClient, password, version string) *SubsonicService {
	return &SubsonicService{client: client, password: password, version: version}
}

func (s *SubsonicService) Name() string {
	return "Subsonic"
}

// Version is the configured protocol version. The underlying client pins its own.
func (s *SubsonicService) Version() string {
	return s.version
}

func (s *SubsonicService) authenticate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authenticated {
		return nil
	}
	if err := s.client.Authenticate(s.password); err != nil {
		return classifySubsonic(err)
	}
	s.authenticated = true
	return nil
}

// FetchStarred returns every starred song in server order.
//
// The underlying client has no context support, so the call runs in a goroutine and ctx only
// bounds how long the caller waits.
func (s *SubsonicService) FetchStarred(ctx context.Context) ([]models.Song, error) {
	type result struct {
		songs []models.Song
		err   error
	}

	done := make(chan result, 1)
	go func() {
		songs, err := s.fetchStarred()
		done <- result{songs, err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: subsonic: %v", shared.ErrTransient, ctx.Err())
		}
		return nil, ctx.Err()
	case r := <-done:
		return r.songs, r.err
	}
}

func (s *SubsonicService) fetchStarred() ([]models.Song, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	starred, err := s.client.GetStarred(nil)
	if err != nil {
		return nil, classifySubsonic(err)
	}
	if starred == nil {
		return []models.Song{}, nil
	}

	songs := make([]models.Song, 0, len(starred.Song))
	for _, child := range starred.Song {
		if child == nil {
			continue
		}
		songs = append(songs, models.Song{Artist: child.Artist, Title: child.Title})
	}
	return songs, nil
}

// classifySubsonic maps server errors 40 (wrong credentials) and 41 (token auth unsupported) to
// fatal errors. Everything else is transient.
func classifySubsonic(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "#40") || strings.Contains(msg, "#41") {
		return fmt.Errorf("%w: subsonic: %v", shared.ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%w: subsonic: %v", shared.ErrTransient, err)
}
