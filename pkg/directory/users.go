package directory

import (
	"context"
	"net/url"
	"strings"
)

// ListUsers fetches the full registered-user directory.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return c.getUsers(ctx, c.endpoint("users"))
}

// SearchUsers asks the backend for users whose username or id matches query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	target := c.endpoint("users", "search") + "?" + url.Values{"query": {query}}.Encode()
	return c.getUsers(ctx, target)
}

// Candidates returns the users that may be invited by selfID: everyone but
// selfID whose username or id contains term, ignoring case. An empty term
// matches every candidate.
func Candidates(users []User, selfID, term string) []User {
	needle := strings.ToLower(term)
	result := make([]User, 0, len(users))
	for _, u := range users {
		if u.UserID == selfID {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Username), needle) ||
			strings.Contains(strings.ToLower(u.UserID), needle) {
			result = append(result, u)
		}
	}
	return result
}
