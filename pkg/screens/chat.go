package screens

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tinyland-inc/alarmchat/pkg/alarm"
	"github.com/tinyland-inc/alarmchat/pkg/bus"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
	"github.com/tinyland-inc/alarmchat/pkg/relay"
)

const (
	anonymousID   = "anonymous"
	anonymousName = "Anonymous"

	defaultRelayTimeout = 5 * time.Second
)

// UserLister loads the chat sidebar.
type UserLister interface {
	ListUsers(ctx context.Context) ([]directory.User, error)
}

type ChatOption func(*ChatScreen)

// WithAlertSink forwards every received alert to sink.
func WithAlertSink(sink relay.Sink) ChatOption {
	return func(c *ChatScreen) { c.sink = sink }
}

// WithRelayTimeout bounds each alert forward. Non-positive values keep the
// default.
func WithRelayTimeout(d time.Duration) ChatOption {
	return func(c *ChatScreen) {
		if d > 0 {
			c.relayTimeout = d
		}
	}
}

// ChatScreen is the chat-list screen: a contact sidebar, the live channel
// and a message composer.
type ChatScreen struct {
	users    UserLister
	channel  LiveChannel
	userID   string
	username string
	sink     relay.Sink

	relayTimeout time.Duration

	mu       sync.Mutex
	contacts []directory.User
	selected *directory.User
	draft    string
}

// NewChatScreen creates the screen for the given identity. Empty identity
// fields fall back to the anonymous user.
func NewChatScreen(users UserLister, channel LiveChannel, userID, username string, opts ...ChatOption) *ChatScreen {
	if userID == "" {
		userID = anonymousID
	}
	if username == "" {
		username = anonymousName
	}
	c := &ChatScreen{
		users:    users,
		channel:  channel,
		userID:   userID,
		username: username,

		relayTimeout: defaultRelayTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadContacts fills the sidebar. On failure the sidebar keeps its previous
// contents.
func (c *ChatScreen) LoadContacts(ctx context.Context) error {
	users, err := c.users.ListUsers(ctx)
	if err != nil {
		logger.ErrorCF("screens", "Error fetching users", map[string]any{"error": err.Error()})
		return err
	}
	c.mu.Lock()
	c.contacts = users
	c.mu.Unlock()
	return nil
}

func (c *ChatScreen) Contacts() []directory.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]directory.User, len(c.contacts))
	copy(out, c.contacts)
	return out
}

// Select picks the contact with the given id from the sidebar.
func (c *ChatScreen) Select(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.contacts {
		if c.contacts[i].UserID == userID {
			u := c.contacts[i]
			c.selected = &u
			return true
		}
	}
	return false
}

func (c *ChatScreen) Selected() (directory.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return directory.User{}, false
	}
	return *c.selected, true
}

// Header is the title above the conversation.
func (c *ChatScreen) Header() string {
	if u, ok := c.Selected(); ok {
		return u.DisplayName()
	}
	return "Select a user"
}

// Placeholder is the text shown in the conversation area.
func (c *ChatScreen) Placeholder() string {
	if u, ok := c.Selected(); ok {
		return "Chat with " + u.Username
	}
	return "Select a chat to view messages."
}

// SetUsername changes the name sent with messages. An empty name is ignored.
func (c *ChatScreen) SetUsername(name string) {
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = name
}

// UserID is the identity messages are sent as.
func (c *ChatScreen) UserID() string {
	return c.userID
}

func (c *ChatScreen) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *ChatScreen) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit sends the draft over the live channel. Nothing is sent while no
// contact is selected, while the channel is not open or when the draft is
// blank; the draft is kept in those cases. A sent draft is cleared unless it
// was replaced while sending.
func (c *ChatScreen) Submit() bool {
	c.mu.Lock()
	selected := c.selected != nil
	draft, username := c.draft, c.username
	c.mu.Unlock()

	if !selected || !c.channel.IsOpen() {
		return false
	}
	if strings.TrimSpace(draft) == "" {
		return false
	}
	if !c.channel.SendChat(alarm.NewChatMessage(c.userID, username, draft)) {
		return false
	}

	c.mu.Lock()
	if c.draft == draft {
		c.draft = ""
	}
	c.mu.Unlock()
	return true
}

// Alerts returns the session's alert log.
func (c *ChatScreen) Alerts() []string {
	return c.channel.Alerts()
}

// Run delivers live channel events to handle until the channel closes or
// ctx is done. Alerts are also forwarded to the alert sink, if any, without
// holding up delivery. Run returns once pending forwards have finished.
func (c *ChatScreen) Run(ctx context.Context, handle func(bus.Event)) {
	var relays sync.WaitGroup
	defer relays.Wait()

	events := c.channel.Events()
	for {
		ev, ok := events.Consume(ctx)
		if !ok {
			return
		}
		if ev.Kind == bus.KindAlert && c.sink != nil {
			relays.Add(1)
			go func(alert string) {
				defer relays.Done()
				c.forward(ctx, alert)
			}(ev.Message)
		}
		if handle != nil {
			handle(ev)
		}
	}
}

func (c *ChatScreen) forward(ctx context.Context, alert string) {
	ctx, cancel := context.WithTimeout(ctx, c.relayTimeout)
	defer cancel()
	if err := c.sink.Forward(ctx, c.userID, alert); err != nil {
		logger.WarnCF("screens", "Alert relay failed", map[string]any{"error": err.Error()})
	}
}

// Close ends the screen session.
func (c *ChatScreen) Close() error {
	return c.channel.Close()
}
