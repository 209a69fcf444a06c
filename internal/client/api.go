// Package client talks to a simplechat server: REST calls for accounts and history,
// and a WebSocket session for live chat.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/simplechat/internal/proto"
)

var (
	// ErrUnauthorized is returned on 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrNotFound is returned on 404 responses.
	ErrNotFound = errors.New("not found")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// User is a registered account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session is the result of register and login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Room is a chat room visible to the caller.
type Room struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	OwnerID   *int64 `json:"owner_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// API is a REST client. The zero token only reaches the public endpoints.
type API struct {
	base  string
	http  *http.Client
	token string
}

// NewAPI creates a client for the server at baseURL. A nil httpClient gets a default one.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy of the client that authenticates with token.
func (a *API) WithToken(token string) *API {
	cp := *a
	cp.token = token
	return &cp
}

// Register creates an account.
func (a *API) Register(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	if err := a.do(ctx, http.MethodPost, "/api/user/register", credentials{username, password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Login authenticates an existing account.
func (a *API) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	if err := a.do(ctx, http.MethodPost, "/api/user/login", credentials{username, password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Rooms lists public rooms and the caller's direct rooms.
func (a *API) Rooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := a.do(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a public room owned by the caller.
func (a *API) CreateRoom(ctx context.Context, name string) (*Room, error) {
	var room Room
	if err := a.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": name}, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// SearchUsers finds other users whose name contains query.
func (a *API) SearchUsers(ctx context.Context, query string) ([]User, error) {
	var users []User
	if err := a.do(ctx, http.MethodGet, "/api/users/search?q="+url.QueryEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DirectHistory opens the direct room with username and returns its latest messages.
func (a *API) DirectHistory(ctx context.Context, username string) (*proto.EventHistory, error) {
	var hist proto.EventHistory
	if err := a.do(ctx, http.MethodGet, "/api/chat/get-messages/"+url.PathEscape(username), nil, &hist); err != nil {
		return nil, err
	}
	return &hist, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusConflict:
			if strings.HasPrefix(path, "/api/user/register") {
				return ErrUserExists
			}
		case http.StatusNotFound:
			return ErrNotFound
		}
		return &StatusError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// WebSocketURL maps an http(s) server URL to its ws(s) chat endpoint.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
