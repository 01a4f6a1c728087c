package platform

import (
	"context"
	"regexp"
)

// Reaction marks the bot applies to messages under moderation.
const (
	ReactionPending    = "❓"                   // awaiting moderator review
	ReactionSuppressed = "\U0001F92C"               // auto-suppressed content
	ReactionFlagged    = "‼️"             // moderator flagged content
	ReactionEscalated  = "\U0001F468‍\U0001F4BC" // escalated to higher review
	ReactionDanger     = "\U0001F198"               // reported to authorities
	ReactionReported   = "\U0001F1F6"               // user report submitted
)

type (
	// MessageRef is the (guild, channel, message) id triple embedded
	// in a canonical message link.
	MessageRef struct {
		GuildID   string
		ChannelID string
		MessageID string
	}

	Message struct {
		Ref        MessageRef
		AuthorID   string
		AuthorName string
		ChannelID  string
		Content    string
		URL        string
		DM         bool
	}

	// Event is one inbound unit of work for the dispatch loop.
	Event struct {
		Message Message
		Edited  bool
	}

	Chat interface {
		SendMessage(ctx context.Context, channelID, text string) error
		SendDM(ctx context.Context, userID, text string) error
		AddReaction(ctx context.Context, ref MessageRef, emoji string) error
		RemoveOwnReaction(ctx context.Context, ref MessageRef, emoji string) error
		FetchMessage(ctx context.Context, ref MessageRef) (*Message, error)
		SelfID() string
	}
)

var refPattern = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)`)

// ParseRef extracts the id triple out of a message link. Returns false
// when the text carries no recognizable link.
func ParseRef(s string) (MessageRef, bool) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return MessageRef{}, false
	}
	return MessageRef{GuildID: m[1], ChannelID: m[2], MessageID: m[3]}, true
}

func (r MessageRef) URL() string {
	return "https://discord.com/channels/" + r.GuildID + "/" + r.ChannelID + "/" + r.MessageID
}

func (r MessageRef) IsZero() bool {
	return r == MessageRef{}
}
