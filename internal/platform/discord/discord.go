package discord

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/errs"
	"github.com/iamwavecut/modbot/internal/platform"
)

const dmChannelCacheSize = 1024

// Client adapts a discordgo session to the platform.Chat contract and
// feeds inbound messages into the engine's event channel.
type Client struct {
	session    *discordgo.Session
	dmChannels *lru.Cache[string, string]
	logger     *log.Entry
}

func New(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	cache, err := lru.New[string, string](dmChannelCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create dm channel cache")
	}

	return &Client{
		session:    session,
		dmChannels: cache,
		logger:     log.WithField("component", "discord"),
	}, nil
}

// Subscribe registers message handlers that forward create and edit
// events into sink. Must be called before Start.
func (c *Client) Subscribe(sink chan<- platform.Event) {
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == c.SelfID() {
			return
		}
		sink <- platform.Event{Message: c.convert(m.Message)}
	})
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Author == nil || m.Author.ID == c.SelfID() {
			return
		}
		if m.BeforeUpdate != nil && m.BeforeUpdate.Content == m.Content {
			return
		}
		sink <- platform.Event{Message: c.convert(m.Message), Edited: true}
	})
}

func (c *Client) Start(ctx context.Context) error {
	_ = ctx
	return errors.Wrap(c.session.Open(), "open discord gateway")
}

func (c *Client) Stop(ctx context.Context) error {
	_ = ctx
	return c.session.Close()
}

func (c *Client) SelfID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) SendMessage(ctx context.Context, channelID, text string) error {
	_, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "send message to channel %s", channelID)
}

func (c *Client) SendDM(ctx context.Context, userID, text string) error {
	channelID, ok := c.dmChannels.Get(userID)
	if !ok {
		channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
		if err != nil {
			return errors.Wrapf(err, "create dm channel for user %s", userID)
		}
		channelID = channel.ID
		c.dmChannels.Add(userID, channelID)
	}
	return c.SendMessage(ctx, channelID, text)
}

func (c *Client) AddReaction(ctx context.Context, ref platform.MessageRef, emoji string) error {
	err := c.session.MessageReactionAdd(ref.ChannelID, ref.MessageID, emoji, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "add reaction %s", emoji)
}

func (c *Client) RemoveOwnReaction(ctx context.Context, ref platform.MessageRef, emoji string) error {
	err := c.session.MessageReactionRemove(ref.ChannelID, ref.MessageID, emoji, "@me", discordgo.WithContext(ctx))
	return errors.Wrapf(err, "remove reaction %s", emoji)
}

func (c *Client) FetchMessage(ctx context.Context, ref platform.MessageRef) (*platform.Message, error) {
	msg, err := c.session.ChannelMessage(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(errs.ErrNotFound, "message %s", ref.MessageID)
		}
		return nil, errors.Wrapf(err, "fetch message %s", ref.MessageID)
	}
	converted := c.convert(msg)
	converted.Ref.GuildID = ref.GuildID
	converted.URL = converted.Ref.URL()
	return &converted, nil
}

func (c *Client) convert(m *discordgo.Message) platform.Message {
	ref := platform.MessageRef{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
	}
	converted := platform.Message{
		Ref:       ref,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		DM:        m.GuildID == "",
	}
	if m.Author != nil {
		converted.AuthorID = m.Author.ID
		converted.AuthorName = m.Author.Username
	}
	if !converted.DM {
		converted.URL = ref.URL()
	}
	return converted
}
