package moderation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/review"
	"github.com/iamwavecut/modbot/internal/scoring"
)

type chatStub struct {
	sent     []string
	dms      map[string][]string
	added    []string
	removed  []string
	fetchErr error
}

func newChatStub() *chatStub {
	return &chatStub{dms: map[string][]string{}}
}

func (c *chatStub) SendMessage(_ context.Context, _, text string) error {
	c.sent = append(c.sent, text)
	return nil
}

func (c *chatStub) SendDM(_ context.Context, userID, text string) error {
	c.dms[userID] = append(c.dms[userID], text)
	return nil
}

func (c *chatStub) AddReaction(_ context.Context, _ platform.MessageRef, emoji string) error {
	c.added = append(c.added, emoji)
	return nil
}

func (c *chatStub) RemoveOwnReaction(_ context.Context, _ platform.MessageRef, emoji string) error {
	c.removed = append(c.removed, emoji)
	return nil
}

func (c *chatStub) FetchMessage(_ context.Context, ref platform.MessageRef) (*platform.Message, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return &platform.Message{Ref: ref}, nil
}

func (c *chatStub) SelfID() string { return "bot" }

func (c *chatStub) lastSent(t *testing.T) string {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return c.sent[len(c.sent)-1]
}

func testPenalties() config.Penalties {
	return config.Penalties{ReporterSuspendDuration: time.Hour, ShortDeactivationDays: 1, LongDeactivationDays: 7}
}

func userCase() *review.Case {
	target := platform.Message{
		Ref:        platform.MessageRef{GuildID: "1", ChannelID: "2", MessageID: "3"},
		AuthorID:   "100",
		AuthorName: "scammer",
		Content:    "free bitcoin giveaway",
	}
	return review.NewUserCase(target, "200", &review.IntakeRecord{Category: review.CategoryScam}, time.Now())
}

func autoFlaggedCase() *review.Case {
	msg := platform.Message{
		Ref:      platform.MessageRef{GuildID: "1", ChannelID: "2", MessageID: "4"},
		AuthorID: "100",
		Content:  "free bitcoin giveaway",
	}
	return review.NewAutoCase(msg, scoring.ScoreMap{"CRYPTO_SCAM": 0.7}, time.Now())
}

func newTestResolution(c *review.Case, chat *chatStub, strikes *Strikes, blacklist *Blacklist) *Resolution {
	if strikes == nil {
		strikes = NewStrikes(newStrikesTestStore(), time.Hour)
	}
	if blacklist == nil {
		blacklist = NewBlacklist(&blacklistTestStore{})
	}
	return NewResolution(c, chat, blacklist, strikes, "mod", testPenalties())
}

func TestMaliciousReportShortCircuits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	store := newStrikesTestStore()
	strikes := NewStrikes(store, time.Hour)
	r := newTestResolution(userCase(), chat, strikes, nil)

	r.Begin(ctx)
	if !strings.Contains(chat.lastSent(t), "malicious user report") {
		t.Fatalf("expected malicious check first for user report, got %q", chat.lastSent(t))
	}

	if done := r.Handle(ctx, "y"); done {
		t.Fatal("choice prompt must not close the case")
	}
	if done := r.Handle(ctx, "2"); !done {
		t.Fatal("expected case to close after reporter outcome")
	}

	reported, malicious := strikes.Get(ctx, "200")
	if malicious != 1 || reported != 0 {
		t.Fatalf("expected exactly one malicious strike, got reported=%d malicious=%d", reported, malicious)
	}
	if !strikes.IsSuspended(ctx, "200", time.Now()) {
		t.Fatal("expected reporter suspension to be recorded")
	}
	if len(chat.dms["200"]) != 1 {
		t.Fatalf("expected one dm to the reporter, got %v", chat.dms)
	}
	if !strings.Contains(chat.lastSent(t), "malicious user report") {
		t.Fatalf("expected malicious completion message, got %q", chat.lastSent(t))
	}
}

func TestAutoCaseSkipsMaliciousCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	r := newTestResolution(autoFlaggedCase(), chat, nil, nil)

	r.Begin(ctx)
	if !strings.Contains(chat.lastSent(t), "immediate danger") {
		t.Fatalf("auto case must start at the danger check, got %q", chat.lastSent(t))
	}
}

func TestImmediateDangerPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	r := newTestResolution(autoFlaggedCase(), chat, nil, nil)

	r.Begin(ctx)
	if done := r.Handle(ctx, "y"); !done {
		t.Fatal("expected case to close on danger confirmation")
	}
	if len(chat.added) != 1 || chat.added[0] != platform.ReactionDanger {
		t.Fatalf("expected danger reaction, got %v", chat.added)
	}
	if len(chat.removed) != 1 || chat.removed[0] != platform.ReactionPending {
		t.Fatalf("expected pending mark cleared, got %v", chat.removed)
	}
}

func TestScamAddressCapture(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	blacklist := NewBlacklist(&blacklistTestStore{})
	r := newTestResolution(autoFlaggedCase(), chat, nil, blacklist)

	r.Begin(ctx)
	r.Handle(ctx, "n") // no danger
	r.Handle(ctx, "n") // no escalation
	r.Handle(ctx, "y") // has scam address
	if done := r.Handle(ctx, "https://newcryptoscam.com/"); done {
		t.Fatal("address capture must continue to content outcome")
	}
	if !blacklist.Contains("newcryptoscam.com") {
		t.Fatal("expected address to land in the blacklist")
	}

	// flag content, no account action
	if done := r.Handle(ctx, "2"); done {
		t.Fatal("content outcome must continue to account outcome")
	}
	if done := r.Handle(ctx, "1"); !done {
		t.Fatal("expected case to close after account outcome")
	}
	found := false
	for _, emoji := range chat.added {
		if emoji == platform.ReactionFlagged {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected flagged reaction, got %v", chat.added)
	}
}

func TestDuplicateScamAddressReported(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	blacklist := NewBlacklist(&blacklistTestStore{})
	if _, err := blacklist.Add(ctx, "newcryptoscam.com"); err != nil {
		t.Fatalf("preload blacklist: %v", err)
	}
	r := newTestResolution(autoFlaggedCase(), chat, nil, blacklist)

	r.Begin(ctx)
	r.Handle(ctx, "n")
	r.Handle(ctx, "n")
	r.Handle(ctx, "y")
	r.Handle(ctx, "https://newcryptoscam.com/")

	saw := false
	for _, msg := range chat.sent {
		if strings.Contains(msg, "already on the internal blacklist") {
			saw = true
		}
	}
	if !saw {
		t.Fatalf("expected duplicate notice, got %v", chat.sent)
	}
	if blacklist.Len() != 1 {
		t.Fatalf("duplicate must not grow the blacklist, len=%d", blacklist.Len())
	}
}

func TestAccountOutcomeAddsStrike(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	store := newStrikesTestStore()
	strikes := NewStrikes(store, time.Hour)
	r := newTestResolution(autoFlaggedCase(), chat, strikes, nil)

	r.Begin(ctx)
	r.Handle(ctx, "n")
	r.Handle(ctx, "n")
	r.Handle(ctx, "n")
	r.Handle(ctx, "1") // content: no action
	if done := r.Handle(ctx, "4"); !done {
		t.Fatal("expected case to close after permanent deactivation")
	}

	reported, malicious := strikes.Get(ctx, "100")
	if reported != 1 || malicious != 0 {
		t.Fatalf("expected one reported strike, got reported=%d malicious=%d", reported, malicious)
	}
	if len(chat.dms["100"]) != 1 || !strings.Contains(chat.dms["100"][0], "permanently deactivated") {
		t.Fatalf("expected permanent deactivation warning, got %v", chat.dms["100"])
	}
}

func TestInvalidRepliesAreIgnoredInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chat := newChatStub()
	r := newTestResolution(autoFlaggedCase(), chat, nil, nil)

	r.Begin(ctx)
	before := len(chat.sent)
	for _, junk := range []string{"maybe", "yes please", "0", "99", ""} {
		if done := r.Handle(ctx, junk); done {
			t.Fatalf("junk input %q must not close the case", junk)
		}
	}
	if len(chat.sent) != before {
		t.Fatalf("junk input must not produce replies, got %v", chat.sent[before:])
	}
}
