// Package client talks to the portal REST API and hands back normalized
// model values. Responses may be wrapped in a {"data": ...} envelope or
// returned bare; both are accepted.
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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/normalize"
)

var (
	ErrUnauthorized = errors.New("portal: unauthorized")
	ErrNotFound     = errors.New("portal: not found")
	ErrNoToken      = errors.New("portal: no session token")
)

// APIError carries a non-2xx response the client has no sentinel for
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portal: status %d", e.StatusCode)
	}
	return fmt.Sprintf("portal: status %d: %s", e.StatusCode, e.Message)
}

// TokenSource yields the bearer token for outgoing requests
type TokenSource interface {
	Token() string
}

// Cache stores raw response bodies
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ComplaintFilter narrows ListComplaints. Zero values are omitted.
type ComplaintFilter struct {
	Status   models.ComplaintStatus
	Category string
	Priority models.Priority
	Limit    int
	Page     int
}

func (f ComplaintFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	if f.Page > 0 {
		q.Set("page", fmt.Sprint(f.Page))
	}
	return q
}

// Client is a portal API client
type Client struct {
	base     string
	http     *http.Client
	tokens   TokenSource
	norm     *normalize.Normalizer
	cache    Cache
	cacheTTL time.Duration
	onUnauth func()
	logger   *zap.SugaredLogger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache enables response caching for ttl
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithUnauthorizedHook runs fn whenever the API answers 401, typically
// to sign the session out.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauth = fn }
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, tokens TokenSource, norm *normalize.Normalizer, logger *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		tokens: tokens,
		norm:   norm,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (models.User, error) {
	data, err := c.get(ctx, "/auth/me", nil, false)
	if err != nil {
		return models.User{}, err
	}
	return c.norm.User(field(data, "user")), nil
}

// Login exchanges a token for the user profile and stores both in session.
func (c *Client) Login(ctx context.Context, session *auth.Session, token string) (models.User, error) {
	if err := session.SetToken(token); err != nil {
		return models.User{}, err
	}
	user, err := c.Me(ctx)
	if err != nil {
		session.Logout()
		return models.User{}, err
	}
	if err := session.Login(token, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListComplaints returns complaints visible to the signed-in user
func (c *Client) ListComplaints(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, error) {
	data, err := c.get(ctx, "/complaints", filter.query(), true)
	if err != nil {
		return nil, err
	}
	return c.norm.Complaints(field(data, "complaints")), nil
}

// GetComplaint returns a single complaint
func (c *Client) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	if id == "" {
		return models.Complaint{}, ErrNotFound
	}
	data, err := c.get(ctx, "/complaints/"+url.PathEscape(id), nil, true)
	if err != nil {
		return models.Complaint{}, err
	}
	return c.norm.Complaint(field(data, "complaint")), nil
}

// ListNotifications returns the signed-in user's notifications. They are
// never cached since the poller depends on fresh reads.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	data, err := c.get(ctx, "/notifications", nil, false)
	if err != nil {
		return nil, err
	}
	return c.norm.Notifications(field(data, "notifications")), nil
}

// GetAnalytics returns the analytics summary
func (c *Client) GetAnalytics(ctx context.Context) (models.Analytics, error) {
	data, err := c.get(ctx, "/analytics", nil, true)
	if err != nil {
		return models.Analytics{}, err
	}
	return c.norm.Analytics(data), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, cacheable bool) (any, error) {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return nil, ErrNoToken
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	key := ""
	if cacheable && c.cache != nil {
		key = cacheKey(token, target)
		if body, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warnw("Cache read failed", "path", path, "error", err)
		} else if ok {
			return decode(body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauth != nil {
			c.onUnauth()
		}
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	data, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if key != "" {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.Warnw("Cache write failed", "path", path, "error", err)
		}
	}
	return data, nil
}

// decode unwraps the {"data": ...} envelope when present
func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok {
		if data, ok := m["data"]; ok {
			return data, nil
		}
	}
	return v, nil
}

// field returns v[key] when v is an object holding key, else v itself.
func field(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m[key]; ok {
			return inner
		}
	}
	return v
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// cacheKey scopes entries to the token's owner so users never share them
func cacheKey(token, target string) string {
	owner := token
	if claims, err := auth.ParseClaims(token, time.Now()); err == nil && claims.Owner() != "" {
		owner = claims.Owner()
	}
	return "portal:" + owner + ":" + target
}
