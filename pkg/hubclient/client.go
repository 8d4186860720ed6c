// Package hubclient is a Go client for the knowledge hub API. It caches
// the users, tags and resources collections and refreshes a collection
// after any mutation that touches it.
package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"knowledge_hub/internal/domain/model"
)

// APIError carries the status code and the server's error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Session holds the authenticated user and token for a client.
type Session struct {
	mu    sync.RWMutex
	user  *model.PublicUser
	token string
}

func (s *Session) set(user *model.PublicUser, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
}

// CurrentUser returns the logged-in user, or nil when logged out.
func (s *Session) CurrentUser() *model.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear drops the user and token. Called on logout and on any
// unauthorized response outside of login.
func (s *Session) Clear() {
	s.set(nil, "")
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session

	// Invoked after the session is cleared by a 401 on a non-login call.
	onUnauthorized func()

	mu        sync.Mutex
	users     []model.PublicUser
	tags      []model.Tag
	resources []model.Resource
	haveUsers bool
	haveTags  bool
	haveRes   bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUnauthorizedHook registers a callback fired when an authenticated
// call comes back 401 and the session has been torn down.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// SignupParams mirrors the signup payload.
type SignupParams struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ResourceParams mirrors the resource create/update payload. Tags may
// name existing tags by id or name; unknown names are created server-side.
type ResourceParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	URL         *string  `json:"url,omitempty"`
	Code        *string  `json:"code,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Tags        []string `json:"tags"`
}

type authResponse struct {
	User  *model.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func (c *Client) Signup(ctx context.Context, params SignupParams) (*model.PublicUser, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/users", params, &resp, true); err != nil {
		return nil, err
	}
	c.session.set(resp.User, resp.Token)
	c.invalidateUsers()
	return resp.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.PublicUser, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &resp, true); err != nil {
		return nil, err
	}
	c.session.set(resp.User, resp.Token)
	return resp.User, nil
}

func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) Me(ctx context.Context) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodGet, "/users/"+id, nil, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users returns the cached user collection, fetching it on first use.
// Callers always get their own copy; the cache contents stay private.
func (c *Client) Users(ctx context.Context) ([]model.PublicUser, error) {
	c.mu.Lock()
	if c.haveUsers {
		users := append([]model.PublicUser(nil), c.users...)
		c.mu.Unlock()
		return users, nil
	}
	c.mu.Unlock()

	var users []model.PublicUser
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users, false); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.users = users
	c.haveUsers = true
	c.mu.Unlock()
	return append([]model.PublicUser(nil), users...), nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, params SignupParams) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodPut, "/users/"+id, params, &user, false); err != nil {
		return nil, err
	}
	if current := c.session.CurrentUser(); current != nil && current.ID == user.ID {
		c.session.set(&user, c.session.Token())
	}
	// Resources embed the owner profile, so they go stale too.
	c.invalidateUsers()
	c.invalidateResources()
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil, false); err != nil {
		return err
	}
	if current := c.session.CurrentUser(); current != nil && current.ID == id {
		c.session.Clear()
	}
	c.invalidateUsers()
	c.invalidateResources()
	return nil
}

// Tags returns the cached tag collection, fetching it on first use.
func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	c.mu.Lock()
	if c.haveTags {
		tags := append([]model.Tag(nil), c.tags...)
		c.mu.Unlock()
		return tags, nil
	}
	c.mu.Unlock()

	var tags []model.Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, &tags, false); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tags = tags
	c.haveTags = true
	c.mu.Unlock()
	return append([]model.Tag(nil), tags...), nil
}

func (c *Client) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	body := map[string]string{"name": name}
	var tag model.Tag
	if err := c.do(ctx, http.MethodPost, "/tags", body, &tag, false); err != nil {
		return nil, err
	}
	c.invalidateTags()
	return &tag, nil
}

// Resources returns the cached resource collection, fetching it on first use.
func (c *Client) Resources(ctx context.Context) ([]model.Resource, error) {
	c.mu.Lock()
	if c.haveRes {
		resources := append([]model.Resource(nil), c.resources...)
		c.mu.Unlock()
		return resources, nil
	}
	c.mu.Unlock()

	var resources []model.Resource
	if err := c.do(ctx, http.MethodGet, "/resources", nil, &resources, false); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.resources = resources
	c.haveRes = true
	c.mu.Unlock()
	return append([]model.Resource(nil), resources...), nil
}

func (c *Client) ResourcesByUser(ctx context.Context, userID string) ([]model.Resource, error) {
	var resources []model.Resource
	if err := c.do(ctx, http.MethodGet, "/resources/user/"+userID, nil, &resources, false); err != nil {
		return nil, err
	}
	return resources, nil
}

func (c *Client) CreateResource(ctx context.Context, params ResourceParams) (*model.Resource, error) {
	var resource model.Resource
	if err := c.do(ctx, http.MethodPost, "/resources", params, &resource, false); err != nil {
		return nil, err
	}
	// Tag references may have created tags alongside the resource.
	c.invalidateResources()
	c.invalidateTags()
	return &resource, nil
}

func (c *Client) UpdateResource(ctx context.Context, id string, params ResourceParams) (*model.Resource, error) {
	var resource model.Resource
	if err := c.do(ctx, http.MethodPut, "/resources/"+id, params, &resource, false); err != nil {
		return nil, err
	}
	c.invalidateResources()
	c.invalidateTags()
	return &resource, nil
}

func (c *Client) DeleteResource(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/resources/"+id, nil, nil, false); err != nil {
		return err
	}
	c.invalidateResources()
	return nil
}

func (c *Client) invalidateUsers() {
	c.mu.Lock()
	c.users = nil
	c.haveUsers = false
	c.mu.Unlock()
}

func (c *Client) invalidateTags() {
	c.mu.Lock()
	c.tags = nil
	c.haveTags = false
	c.mu.Unlock()
}

func (c *Client) invalidateResources() {
	c.mu.Lock()
	c.resources = nil
	c.haveRes = false
	c.mu.Unlock()
}

// do performs one API call. isAuthCall marks signup/login, where a 401
// means bad credentials rather than a dead session.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, isAuthCall bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && !isAuthCall {
		c.session.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
