// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lovesync/internal/models"
)

// Call records one invocation of a [MockLovedService] mutation.
type Call struct {
	Method string
	Artist string
	Title  string
}

// MockStarredSource is a test double for [services.StarredSource].
//
// Errors are returned in order before Songs is returned.
type MockStarredSource struct {
	Songs  []models.Song
	Errors []error
	Calls  int
}

func (m *MockStarredSource) FetchStarred(ctx context.Context) ([]models.Song, error) {
	m.Calls++
	if len(m.Errors) > 0 {
		err := m.Errors[0]
		m.Errors = m.Errors[1:]
		return nil, err
	}
	return m.Songs, nil
}

func (m *MockStarredSource) Name() string { return "mock-local" }

// MockLovedService is a test double for [services.LovedService].
//
// FetchErrors are returned in order before Loved is returned. MutationErrors maps
// "artist - title" to errors consumed one per attempt.
type MockLovedService struct {
	mu             sync.Mutex
	Loved          []models.Song
	FetchErrors    []error
	MutationErrors map[string][]error
	Calls          []Call
	FetchCalls     int
}

func (m *MockLovedService) FetchLoved(ctx context.Context, username string) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if len(m.FetchErrors) > 0 {
		err := m.FetchErrors[0]
		m.FetchErrors = m.FetchErrors[1:]
		return nil, err
	}
	return m.Loved, nil
}

func (m *MockLovedService) Love(ctx context.Context, artist, title string) error {
	return m.mutate("love", artist, title)
}

func (m *MockLovedService) Unlove(ctx context.Context, artist, title string) error {
	return m.mutate("unlove", artist, title)
}

func (m *MockLovedService) mutate(method, artist, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: method, Artist: artist, Title: title})

	key := artist + " - " + title
	if errs := m.MutationErrors[key]; len(errs) > 0 {
		m.MutationErrors[key] = errs[1:]
		return errs[0]
	}
	return nil
}

// CallsFor returns the recorded calls of one method.
func (m *MockLovedService) CallsFor(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []Call
	for _, c := range m.Calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

func (m *MockLovedService) Name() string { return "mock-remote" }

// MockAuthorizer is a test double for [services.Authorizer].
//
// SessionErrors are returned in order before SessionKey is returned.
type MockAuthorizer struct {
	Token         string
	TokenErr      error
	SessionKey    string
	SessionErrors []error
	SessionCalls  int
}

func (m *MockAuthorizer) RequestToken(ctx context.Context) (string, error) {
	return m.Token, m.TokenErr
}

func (m *MockAuthorizer) AuthURL(token string) string {
	return "https://auth.example.test/?token=" + token
}

func (m *MockAuthorizer) Session(ctx context.Context, token string) (string, error) {
	m.SessionCalls++
	if len(m.SessionErrors) > 0 {
		err := m.SessionErrors[0]
		m.SessionErrors = m.SessionErrors[1:]
		return "", err
	}
	return m.SessionKey, nil
}

// RecordingSleeper records requested delays without sleeping.
type RecordingSleeper struct {
	mu     sync.Mutex
	Delays []time.Duration
}

func (r *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Delays = append(r.Delays, d)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
