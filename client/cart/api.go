package cart

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
)

const defaultRequestTimeout = 15 * time.Second

// APIError is the decoded JSON error envelope returned by the server.
type APIError struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart api: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("cart api: request failed with status %d", e.Status)
}

// Client is an HTTP implementation of CartAPI against the storefront server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customises the HTTP client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient constructs a cart API client rooted at the server base URL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("cart api: base url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("cart api: invalid base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type wireEntry struct {
	ItemID   string `json:"itemId"`
	Quantity int64  `json:"quantity"`
}

type wireCart struct {
	Entries   []wireEntry `json:"entries"`
	UpdatedAt string      `json:"updatedAt"`
}

type wireMutation struct {
	ItemID string `json:"itemId"`
}

// FetchCart retrieves the current cart snapshot.
func (c *Client) FetchCart(ctx context.Context, token string) (Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/cart", token, nil)
	if err != nil {
		return Snapshot{}, err
	}
	return decodeSnapshot(body)
}

// AddItem records one unit of the item.
func (c *Client) AddItem(ctx context.Context, token, itemID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/cart/add", token, wireMutation{ItemID: itemID})
	return err
}

// RemoveItem decrements the item by one unit.
func (c *Client) RemoveItem(ctx context.Context, token, itemID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/cart/remove", token, wireMutation{ItemID: itemID})
	return err
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/cart/clear", token, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cart api: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("cart api: build request: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart api: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cart api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(body) > 0 {
			_ = json.Unmarshal(body, apiErr)
			apiErr.Status = resp.StatusCode
		}
		return nil, apiErr
	}
	return body, nil
}

func decodeSnapshot(body []byte) (Snapshot, error) {
	var wire wireCart
	if err := json.Unmarshal(body, &wire); err != nil {
		return Snapshot{}, fmt.Errorf("cart api: decode cart: %w", err)
	}

	snap := Snapshot{Entries: make(map[string]int64, len(wire.Entries))}
	for _, entry := range wire.Entries {
		if entry.ItemID == "" || entry.Quantity <= 0 {
			continue
		}
		snap.Entries[entry.ItemID] = entry.Quantity
	}
	if wire.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, wire.UpdatedAt); err == nil {
			snap.UpdatedAt = ts
		}
	}
	return snap, nil
}

var _ CartAPI = (*Client)(nil)
