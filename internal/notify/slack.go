package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackChannel posts alerts to a Slack channel.
type SlackChannel struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackChannel.
type SlackOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlackChannel creates a Slack alert channel.
func NewSlackChannel(opts SlackOpts) (*SlackChannel, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel is required")
	}

	c := &SlackChannel{client: opts.Client, channelID: opts.ChannelID}
	if c.client == nil {
		c.client = slackapi.New(opts.BotToken)
	}
	return c, nil
}

// Name implements Channel.
func (c *SlackChannel) Name() string { return "slack" }

// Send posts the alert as an attachment, colored by urgency.
func (c *SlackChannel) Send(ctx context.Context, alert Alert) error {
	color := "#ffa500"
	if alert.Urgency == "HIGH" {
		color = "#d00000"
	}

	attachment := slackapi.Attachment{
		Title: alert.Title,
		Text:  alert.Message,
		Color: color,
	}
	_, _, err := c.client.PostMessageContext(ctx, c.channelID, slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
