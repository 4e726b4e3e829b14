// Package relay forwards live channel alerts to external destinations.
package relay

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

// Sink receives alerts from a chat session.
type Sink interface {
	Forward(ctx context.Context, userID, alert string) error
}

// SlackWebhook posts alerts to a Slack incoming webhook.
type SlackWebhook struct {
	url string
}

func NewSlackWebhook(url string) *SlackWebhook {
	return &SlackWebhook{url: url}
}

func (s *SlackWebhook) Forward(ctx context.Context, userID, alert string) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: Alert for %s: %s", userID, alert),
	}
	if err := slack.PostWebhookContext(ctx, s.url, msg); err != nil {
		logger.WarnCF("relay", "Slack webhook failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("posting to slack: %w", err)
	}
	logger.DebugCF("relay", "Alert forwarded to Slack", map[string]any{"user": userID})
	return nil
}
