// Package platform talks to the chat platform: a REST client for channel
// and message operations, and a gateway consumer for live events.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// ErrNotFound is returned when the platform reports a missing resource.
var ErrNotFound = errors.New("platform resource not found")

// Client is the platform REST surface the ticket service depends on.
type Client interface {
	// FetchMessages lists up to limit messages in a channel, newest first,
	// older than beforeID when it is non-empty.
	FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]proto.Message, error)

	// GetChannel retrieves a channel by ID.
	GetChannel(ctx context.Context, channelID string) (*proto.Channel, error)

	// FindChannelByName retrieves a channel by exact name, or ErrNotFound.
	FindChannelByName(ctx context.Context, name string) (*proto.Channel, error)

	// CreateChannel creates a private channel.
	CreateChannel(ctx context.Context, req CreateChannelRequest) (*proto.Channel, error)

	// DeleteChannel removes a channel; reason is recorded in the platform's
	// audit log.
	DeleteChannel(ctx context.Context, channelID, reason string) error

	// SendMessage posts a message to a channel.
	SendMessage(ctx context.Context, channelID, content string) error

	// SendDirect delivers a direct message to a user.
	SendDirect(ctx context.Context, userID, content string) error
}

// CreateChannelRequest describes a private channel to create.
type CreateChannelRequest struct {
	Name       string   `json:"name"`
	Topic      string   `json:"topic,omitempty"`
	ParentID   string   `json:"parent_id,omitempty"`
	AllowUsers []string `json:"allow_users,omitempty"`
	AllowRoles []string `json:"allow_roles,omitempty"`
}

// HTTPClient implements Client over the platform's REST API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient builds a REST client authenticated with the bot token.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FetchMessages(ctx context.Context, channelID, beforeID string, limit int) ([]proto.Message, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	if beforeID != "" {
		q.Set("before", beforeID)
	}

	var messages []proto.Message
	path := fmt.Sprintf("/channels/%s/messages?%s", url.PathEscape(channelID), q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) GetChannel(ctx context.Context, channelID string) (*proto.Channel, error) {
	var ch proto.Channel
	path := "/channels/" + url.PathEscape(channelID)
	if err := c.do(ctx, http.MethodGet, path, nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *HTTPClient) FindChannelByName(ctx context.Context, name string) (*proto.Channel, error) {
	var channels []proto.Channel
	path := "/channels?name=" + url.QueryEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &channels); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, ErrNotFound
	}
	return &channels[0], nil
}

func (c *HTTPClient) CreateChannel(ctx context.Context, req CreateChannelRequest) (*proto.Channel, error) {
	var ch proto.Channel
	if err := c.do(ctx, http.MethodPost, "/channels", req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *HTTPClient) DeleteChannel(ctx context.Context, channelID, reason string) error {
	path := "/channels/" + url.PathEscape(channelID)
	req := struct {
		Reason string `json:"reason,omitempty"`
	}{Reason: reason}
	return c.do(ctx, http.MethodDelete, path, req, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, channelID, content string) error {
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	req := struct {
		Content string `json:"content"`
	}{Content: content}
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *HTTPClient) SendDirect(ctx context.Context, userID, content string) error {
	path := fmt.Sprintf("/users/%s/messages", url.PathEscape(userID))
	req := struct {
		Content string `json:"content"`
	}{Content: content}
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
