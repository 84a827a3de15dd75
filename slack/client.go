package slack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/justmike1/mentionbot/action"
)

// Client wraps the Slack Web API for posting replies, bot identity and
// message enrichment.
type Client struct {
	api    *slack.Client
	logger *slog.Logger

	mu        sync.Mutex
	botUserID string
	botID     string
}

// NewClient creates a Web API client for botToken. Extra options are passed
// to slack.New (app-level token, API URL, debug logging).
func NewClient(botToken string, logger *slog.Logger, opts ...slack.Option) *Client {
	return &Client{
		api:    slack.New(botToken, opts...),
		logger: logger.With("component", "slack"),
	}
}

// DebugOptions routes slack-go's wire logging through logger.
func DebugOptions(logger *slog.Logger) []slack.Option {
	return []slack.Option{
		slack.OptionDebug(true),
		slack.OptionLog(slog.NewLogLogger(logger.With("component", "slack-api").Handler(), slog.LevelDebug)),
	}
}

// PostMessage posts text to channelID.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

// BotUserID returns the Slack user ID of the bot token. The first successful
// auth.test is cached for the life of the client.
func (c *Client) BotUserID(ctx context.Context) (string, error) {
	userID, _, err := c.identity(ctx)
	return userID, err
}

// identity returns the bot's user ID and bot ID from auth.test, cached after
// the first success.
func (c *Client) identity(ctx context.Context) (userID, botID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.botUserID != "" {
		return c.botUserID, c.botID, nil
	}

	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to call auth.test: %w", err)
	}
	if resp.UserID == "" {
		return "", "", fmt.Errorf("auth.test returned no user id")
	}
	c.botUserID = resp.UserID
	c.botID = resp.BotID
	return c.botUserID, c.botID, nil
}

// Inbound converts a message event into an action.Message, looking up the
// channel and sender. Lookup failures leave the corresponding fields empty.
func (c *Client) Inbound(ctx context.Context, ev *slackevents.MessageEvent) action.Message {
	msg := action.Message{
		ID:             ev.TimeStamp,
		Text:           ev.Text,
		SenderID:       ev.User,
		SenderUsername: ev.Username,
		RoomID:         ev.Channel,
	}
	if msg.SenderID == "" {
		msg.SenderID = ev.BotID
		// Our own posts can arrive as bot_message without a user; report
		// them as the bot user so they are recognised as self.
		if ev.BotID != "" {
			if userID, botID, err := c.identity(ctx); err == nil && botID == ev.BotID {
				msg.SenderID = userID
			}
		}
	}

	if ev.Channel != "" {
		ch, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: ev.Channel})
		if err != nil {
			c.logger.Warn("failed to get channel info", "channel", ev.Channel, "error", err)
		} else {
			msg.RoomName = ch.Name
			msg.RoomTopic = ch.Topic.Value
			msg.RoomDescription = ch.Purpose.Value
		}
	}

	if ev.User != "" {
		u, err := c.api.GetUserInfoContext(ctx, ev.User)
		if err != nil {
			c.logger.Warn("failed to get user info", "user", ev.User, "error", err)
		} else {
			msg.SenderUsername = u.Name
		}
	}
	return msg
}

const subtypeBotMessage = "bot_message"

// MessageHandler receives every accepted inbound message.
type MessageHandler func(ctx context.Context, msg action.Message)

// accept reports whether ev is a message the bot should look at. Edits,
// deletions, joins and other subtypes are ignored; integration posts
// (bot_message) are kept.
func accept(ev *slackevents.MessageEvent) bool {
	return ev.SubType == "" || ev.SubType == subtypeBotMessage
}
