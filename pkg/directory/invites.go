package directory

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

// ListReceivedInvites returns the users who have invited selfUserID.
func (c *Client) ListReceivedInvites(ctx context.Context, selfUserID string) ([]User, error) {
	return c.getUsers(ctx, c.endpoint("users", "invites", "received", selfUserID))
}

// ListSentInvites returns the users selfUserID has invited.
func (c *Client) ListSentInvites(ctx context.Context, selfUserID string) ([]User, error) {
	return c.getUsers(ctx, c.endpoint("users", "invites", "sent", selfUserID))
}

// SendInvite invites receiverUserID. When the backend reports the invite
// already exists, ErrDuplicateInvite is returned.
func (c *Client) SendInvite(ctx context.Context, receiverUserID string) error {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("users", "invite", receiverUserID), "application/json", nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusBadRequest && strings.Contains(string(resp.body), duplicateInviteMarker) {
		logger.InfoCF("directory", "Invite already sent", map[string]any{"receiver": receiverUserID})
		return ErrDuplicateInvite
	}
	return check(resp)
}

// AcceptInvite accepts the pending invite from senderUserID.
func (c *Client) AcceptInvite(ctx context.Context, senderUserID string) error {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("users", "invite", "accept", senderUserID), "", nil)
	if err != nil {
		return err
	}
	return check(resp)
}

// RejectInvite rejects the pending invite from senderUserID.
func (c *Client) RejectInvite(ctx context.Context, senderUserID string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint("users", "invite", "reject", senderUserID), "", nil)
	if err != nil {
		return err
	}
	return check(resp)
}

// InFlight tracks target ids with an invite action in progress so the UI can
// refuse duplicate submissions.
type InFlight struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{ids: make(map[string]struct{})}
}

// Begin marks id as in flight. It returns false if it already was.
func (f *InFlight) Begin(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *InFlight) End(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

func (f *InFlight) Active(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}
