// Last.fm implementation of [LovedService] and [Authorizer]
//
// Response types based on https://www.last.fm/api
package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

const (
	lastFMBaseURL  = "https://ws.audioscrobbler.com/2.0/"
	lastFMAuthURL  = "https://www.last.fm/api/auth/"
	lastFMPageSize = 200
)

// APIError is an error envelope returned by the Last.fm web service.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
}

// Unwrap classifies the error code.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case 8, 11, 16, 29: // operation failed, service offline, temporarily unavailable, rate limit exceeded
		return shared.ErrTransient
	case 4, 9, 10, 13, 26: // auth failed, invalid session key, invalid API key, invalid signature, suspended key
		return shared.ErrInvalidCredentials
	case 14: // unauthorized token
		return shared.ErrAuthPending
	default:
		return shared.ErrAPIRequest
	}
}

type lastFMArtist struct {
	Name string `json:"name"`
	MBID string `json:"mbid"`
}

// LastFMTrack is a loved track entry.
type LastFMTrack struct {
	Name   string       `json:"name"`
	MBID   string       `json:"mbid"`
	URL    string       `json:"url"`
	Artist lastFMArtist `json:"artist"`
}

// trackList accepts both an array and a single object, which Last.fm sends for one-item pages.
type trackList []LastFMTrack

func (t *trackList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if data[0] == '{' {
		var single LastFMTrack
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*t = trackList{single}
		return nil
	}

	var many []LastFMTrack
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

type pageAttr struct {
	Page       string `json:"page"`
	TotalPages string `json:"totalPages"`
	Total      string `json:"total"`
}

// LastFMLovedPage is one page of user.getLovedTracks.
type LastFMLovedPage struct {
	LovedTracks struct {
		Track trackList `json:"track"`
		Attr  pageAttr  `json:"@attr"`
	} `json:"lovedtracks"`
}

// TotalPages parses the page count, defaulting to 1.
func (p *LastFMLovedPage) TotalPages() int {
	n, err := strconv.Atoi(p.LovedTracks.Attr.TotalPages)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LastFMOpts configures a [LastFMService].
type LastFMOpts struct {
	APIKey     string
	APISecret  string
	SessionKey string
	BaseURL    string
	AuthURL    string
	HTTPClient *http.Client
	PageSize   int

	// RequestTimeout bounds each HTTP request, so a paged read is limited per page. Zero disables it.
	RequestTimeout time.Duration
}

// LastFMService implements [LovedService] and [Authorizer] for Last.fm.
type LastFMService struct {
	apiKey     string
	apiSecret  string
	sessionKey string
	baseURL    string
	authURL    string
	httpClient *http.Client
	pageSize   int
	timeout    time.Duration
}

// NewLastFMService creates a new Last.fm client. Defaults are applied for empty options.
func NewLastFMService(opts LastFMOpts) (*LastFMService, error) {
	if opts.APIKey == "" || opts.APISecret == "" {
		return nil, fmt.Errorf("%w: last.fm api key and secret are required", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = lastFMBaseURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = lastFMAuthURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.PageSize <= 0 {
		opts.PageSize = lastFMPageSize
	}

	return &LastFMService{
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		sessionKey: opts.SessionKey,
		baseURL:    opts.BaseURL,
		authURL:    opts.AuthURL,
		httpClient: opts.HTTPClient,
		pageSize:   opts.PageSize,
		timeout:    opts.RequestTimeout,
	}, nil
}

func (l *LastFMService) Name() string {
	return "Last.fm"
}

// SetSessionKey installs the session used by signed write calls.
func (l *LastFMService) SetSessionKey(key string) {
	l.sessionKey = key
}

// HasSession reports whether a session key is installed.
func (l *LastFMService) HasSession() bool {
	return l.sessionKey != ""
}

// sign computes api_sig: the md5 of every parameter except format and callback, sorted by name and
// concatenated as name+value, followed by the secret.
func (l *LastFMService) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "format" || k == "callback" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}
	b.WriteString(l.apiSecret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// doRequest calls a web service method and decodes the JSON response into result.
func (l *LastFMService) doRequest(ctx context.Context, httpMethod, method string, params url.Values, signed bool, result any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("api_key", l.apiKey)
	if signed {
		params.Set("api_sig", l.sign(params))
	}
	params.Set("format", "json")

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var req *http.Request
	var err error

	if httpMethod == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrTransient, err)
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus("last.fm", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// LovedTracks retrieves one page of a user's loved tracks.
func (l *LastFMService) LovedTracks(ctx context.Context, username string, page int) (*LastFMLovedPage, error) {
	params := url.Values{}
	params.Set("user", username)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(l.pageSize))

	var response LastFMLovedPage
	if err := l.doRequest(ctx, http.MethodGet, "user.getLovedTracks", params, false, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// FetchLoved retrieves every loved track of username, newest first as Last.fm orders them.
//
// A failure on any page fails the whole fetch so that a retry starts from the first page.
func (l *LastFMService) FetchLoved(ctx context.Context, username string) ([]models.Song, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: last.fm username", shared.ErrMissingArgument)
	}

	var songs []models.Song
	for page, total := 1, 1; page <= total; page++ {
		response, err := l.LovedTracks(ctx, username, page)
		if err != nil {
			return nil, err
		}

		for _, track := range response.LovedTracks.Track {
			songs = append(songs, models.Song{Artist: track.Artist.Name, Title: track.Name})
		}

		total = response.TotalPages()
	}

	return songs, nil
}

func (l *LastFMService) setLoved(ctx context.Context, method, artist, title string) error {
	if l.sessionKey == "" {
		return fmt.Errorf("%w: no last.fm session key", shared.ErrNotAuthenticated)
	}

	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("sk", l.sessionKey)

	return l.doRequest(ctx, http.MethodPost, method, params, true, nil)
}

// Love marks a track as loved (track.love).
func (l *LastFMService) Love(ctx context.Context, artist, title string) error {
	return l.setLoved(ctx, "track.love", artist, title)
}

// Unlove removes a track from the loved list (track.unlove).
func (l *LastFMService) Unlove(ctx context.Context, artist, title string) error {
	return l.setLoved(ctx, "track.unlove", artist, title)
}

// RequestToken fetches a request token (auth.getToken).
func (l *LastFMService) RequestToken(ctx context.Context) (string, error) {
	var response struct {
		Token string `json:"token"`
	}
	if err := l.doRequest(ctx, http.MethodGet, "auth.getToken", nil, true, &response); err != nil {
		return "", err
	}
	if response.Token == "" {
		return "", fmt.Errorf("%w: empty token", shared.ErrAPIRequest)
	}
	return response.Token, nil
}

// AuthURL returns the page where the user approves token.
func (l *LastFMService) AuthURL(token string) string {
	params := url.Values{}
	params.Set("api_key", l.apiKey)
	params.Set("token", token)
	return l.authURL + "?" + params.Encode()
}

// Session exchanges an approved token for a session key (auth.getSession).
func (l *LastFMService) Session(ctx context.Context, token string) (string, error) {
	params := url.Values{}
	params.Set("token", token)

	var response struct {
		Session struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		} `json:"session"`
	}
	if err := l.doRequest(ctx, http.MethodGet, "auth.getSession", params, true, &response); err != nil {
		return "", err
	}
	if response.Session.Key == "" {
		return "", fmt.Errorf("%w: empty session key", shared.ErrAPIRequest)
	}
	return response.Session.Key, nil
}
