// Package screens holds the state behind the invitation and chat-list
// screens. It forwards user intent to the directory client and the live
// channel and keeps what the screens display; rendering is left to the
// caller.
package screens

import (
	"context"

	"github.com/tinyland-inc/alarmchat/pkg/alarm"
	"github.com/tinyland-inc/alarmchat/pkg/bus"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
)

// Notifier surfaces user-visible feedback.
type Notifier interface {
	// Notice shows a transient informational or failure message.
	Notice(msg string)
	// RequireLogin sends the user to the login flow.
	RequireLogin()
}

// Directory is the part of the directory client the screens use.
type Directory interface {
	ListUsers(ctx context.Context) ([]directory.User, error)
	ListReceivedInvites(ctx context.Context, selfUserID string) ([]directory.User, error)
	SendInvite(ctx context.Context, receiverUserID string) error
	AcceptInvite(ctx context.Context, senderUserID string) error
	RejectInvite(ctx context.Context, senderUserID string) error
	ImageURL(profilePicURL string) string
}

// LiveChannel is the part of an alarm.Session the chat screen uses.
type LiveChannel interface {
	SendChat(msg alarm.ChatMessage) bool
	Events() *bus.EventBus
	Alerts() []string
	IsOpen() bool
	Close() error
}

var (
	_ Directory   = (*directory.Client)(nil)
	_ LiveChannel = (*alarm.Session)(nil)
)
