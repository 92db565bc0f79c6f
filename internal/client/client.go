// Package client talks to the schedula HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"schedula/internal/models"

	"github.com/redis/go-redis/v9"
)

const bookingsCacheKey = "client:bookings"

// Client is a small typed wrapper over /api/chat and /api/bookings.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// New builds a client. clientID is sent as X-Client-ID so pending cancel
// selections survive between calls.
func New(baseURL, clientID string) *Client {
	return &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache enables caching of the bookings list.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Chat sends one message to the assistant. Any mutation drops the cached
// bookings list.
func (c *Client) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	var reply models.ChatReply
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", map[string]string{"message": message}, &reply); err != nil {
		return nil, err
	}
	if reply.BookingCreated {
		c.dropCache(ctx, bookingsCacheKey)
	}
	return &reply, nil
}

// SaveConversation stores a (message, response) pair verbatim.
func (c *Client) SaveConversation(ctx context.Context, message, response string) (*models.ChatConversation, error) {
	var conv models.ChatConversation
	body := map[string]string{"message": message, "response": response}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) ListConversations(ctx context.Context, page, limit int) (*models.ConversationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out models.ConversationPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/chat?id="+url.QueryEscape(id), nil, nil)
}

// ListBookings returns all bookings, from cache when configured.
func (c *Client) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	var wrap struct {
		Bookings []*models.Booking `json:"bookings"`
	}

	if c.readCache(ctx, bookingsCacheKey, &wrap) {
		return wrap.Bookings, nil
	}

	if err := c.doJSON(ctx, http.MethodGet, "/api/bookings", nil, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, bookingsCacheKey, wrap)
	return wrap.Bookings, nil
}

// ExportBookings streams the XLSX for [from, to] into w.
func (c *Client) ExportBookings(ctx context.Context, w io.Writer, from, to time.Time) error {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	resp, err := c.send(ctx, http.MethodGet, "/api/bookings/export?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.send(ctx, method, path, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return resp, nil
}
