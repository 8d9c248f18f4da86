package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordChannel posts alerts to a Discord channel via the REST API.
type DiscordChannel struct {
	sess      discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordChannel.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscordChannel creates a Discord alert channel.
func NewDiscordChannel(opts DiscordOpts) (*DiscordChannel, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel is required")
	}

	c := &DiscordChannel{sess: opts.Session, channelID: opts.ChannelID}
	if c.sess == nil {
		sess, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		c.sess = sess
	}
	return c, nil
}

// Name implements Channel.
func (c *DiscordChannel) Name() string { return "discord" }

// Send posts the alert as an embed, colored by urgency.
func (c *DiscordChannel) Send(ctx context.Context, alert Alert) error {
	color := 0xffa500
	if alert.Urgency == "HIGH" {
		color = 0xd00000
	}

	embed := &discordgo.MessageEmbed{
		Title:       alert.Title,
		Description: alert.Message,
		Color:       color,
	}
	if _, err := c.sess.ChannelMessageSendEmbed(c.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}
