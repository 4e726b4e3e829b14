package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tinyland-inc/alarmchat/pkg/auth"
)

// Login checks creds against the backend. A nil error means the backend
// accepted them; the caller decides whether to persist them.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("users", "login"), "application/json", body)
	if err != nil {
		return err
	}
	return check(resp)
}

// CheckMessage submits text to the backend's chat monitor on behalf of
// userID and returns the moderation alerts it produced, if any.
func (c *Client) CheckMessage(ctx context.Context, userID, text string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("users", "chat", userID), "text/plain", []byte(text))
	if err != nil {
		return nil, err
	}
	if err := check(resp); err != nil {
		return nil, err
	}

	var alerts []string
	if err := json.Unmarshal(resp.body, &alerts); err != nil {
		return nil, fmt.Errorf("decoding alerts: %w", err)
	}
	return alerts, nil
}

// ResetChatStatus clears the monitor's warning counters for userID and
// returns the backend's confirmation text.
func (c *Client) ResetChatStatus(ctx context.Context, userID string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("users", "chat", "reset", userID), "", nil)
	if err != nil {
		return "", err
	}
	if err := check(resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp.body)), nil
}
