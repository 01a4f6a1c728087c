package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/review"
)

type resolutionState int

const (
	stateAskMalicious resolutionState = iota
	stateAskReporterOutcome
	stateAskDanger
	stateAskEscalate
	stateAskScamAddr
	stateAwaitScamAddr
	stateAskContentOutcome
	stateAskAccountOutcome
	stateDone
)

var (
	reporterOutcomes = []string{
		"Warn the reporter for malicious reports.",
		"Suspend the report feature for the reporter account.",
	}
	contentOutcomes = []string{
		"False Alarm: No action.",
		"Scam Message: Flag Message.",
	}
	accountOutcomes = []string{
		"False Alarm: No action.",
		"Low Severity: Temporarily deactivate reported account for a short period and warn.",
		"Medium Severity: Temporarily deactivate reported account for a longer period and warn.",
		"High Severity: Permanently deactivate reported account.",
	}
)

// Resolution walks a moderator through one dequeued case. It is
// event-driven: every mod-channel message advances the machine, and
// non-qualifying replies are ignored in place, so the moderator can
// chat freely between answers. A case, once begun, is never
// re-enqueued.
type Resolution struct {
	c            *review.Case
	chat         platform.Chat
	blacklist    *Blacklist
	strikes      *Strikes
	modChannelID string
	penalties    config.Penalties
	state        resolutionState
	logger       *log.Entry
}

func NewResolution(
	c *review.Case,
	chat platform.Chat,
	blacklist *Blacklist,
	strikes *Strikes,
	modChannelID string,
	penalties config.Penalties,
) *Resolution {
	return &Resolution{
		c:            c,
		chat:         chat,
		blacklist:    blacklist,
		strikes:      strikes,
		modChannelID: modChannelID,
		penalties:    penalties,
		logger:       log.WithFields(log.Fields{"component": "resolution", "case": c.ID}),
	}
}

// Begin renders the case into the mod channel and asks the first
// question.
func (r *Resolution) Begin(ctx context.Context) {
	reported, _ := r.strikes.Get(ctx, r.c.ReportedAccount)
	r.c.AbuseStrikes = reported
	r.send(ctx, review.Render(r.c))
	if !r.c.AutoFlagged {
		r.send(ctx, "Is this a malicious user report? Enter 'y' or 'n'.")
		r.state = stateAskMalicious
		return
	}
	r.askDanger(ctx)
}

// Handle advances the machine with one moderator reply. Returns true
// once the case is closed.
func (r *Resolution) Handle(ctx context.Context, text string) bool {
	reply := strings.ToLower(strings.TrimSpace(text))

	switch r.state {
	case stateAskMalicious:
		yes, ok := parseYesNo(reply)
		if !ok {
			return false
		}
		if yes {
			r.promptChoice(ctx, "Choose outcome for the malicious reporter.", reporterOutcomes)
			r.state = stateAskReporterOutcome
			return false
		}
		r.askDanger(ctx)

	case stateAskReporterOutcome:
		choice, ok := parseChoice(reply, len(reporterOutcomes))
		if !ok {
			return false
		}
		r.resolveMaliciousReporter(ctx, choice)
		return r.finish(ctx, "Finished processing a malicious user report")

	case stateAskDanger:
		yes, ok := parseYesNo(reply)
		if !ok {
			return false
		}
		if yes {
			r.clearMark(ctx)
			r.react(ctx, platform.ReactionDanger)
			r.send(ctx, "MOCKED: Incident is reported to law enforcement!")
			return r.finish(ctx, "Finished processing a report")
		}
		r.send(ctx, "Would you like to escalate to higher-level reviewers? Enter 'y' or 'n'.")
		r.state = stateAskEscalate

	case stateAskEscalate:
		yes, ok := parseYesNo(reply)
		if !ok {
			return false
		}
		if yes {
			r.clearMark(ctx)
			r.react(ctx, platform.ReactionEscalated)
			r.send(ctx, "MOCKED: Incident is escalated to higher-level reviewers!")
			return r.finish(ctx, "Finished processing a report")
		}
		r.send(ctx, "Does the message include a scam URL/crypto address? Enter 'y' or 'n'.")
		r.state = stateAskScamAddr

	case stateAskScamAddr:
		yes, ok := parseYesNo(reply)
		if !ok {
			return false
		}
		if yes {
			r.send(ctx, "Please enter the reported scam URL/crypto address to be added to the internal blacklist.")
			r.state = stateAwaitScamAddr
			return false
		}
		r.askContentOutcome(ctx)

	case stateAwaitScamAddr:
		added, err := r.blacklist.Add(ctx, strings.TrimSpace(text))
		switch {
		case err != nil:
			r.logger.WithError(err).Error("cant add blacklist entry")
			r.send(ctx, "Could not add the reported scam URL/crypto address to the internal blacklist.")
		case added:
			r.send(ctx, "Added the reported scam URL/crypto address to the internal blacklist.")
		default:
			r.send(ctx, "The reported scam URL/crypto address is already on the internal blacklist.")
		}
		r.askContentOutcome(ctx)

	case stateAskContentOutcome:
		choice, ok := parseChoice(reply, len(contentOutcomes))
		if !ok {
			return false
		}
		r.clearMark(ctx)
		if choice == 1 {
			r.react(ctx, platform.ReactionFlagged)
		}
		r.promptChoice(ctx, "Choose outcome for the reported account.", accountOutcomes)
		r.state = stateAskAccountOutcome

	case stateAskAccountOutcome:
		choice, ok := parseChoice(reply, len(accountOutcomes))
		if !ok {
			return false
		}
		r.resolveReportedAccount(ctx, choice)
		return r.finish(ctx, "Finished processing a report")
	}
	return false
}

func (r *Resolution) askDanger(ctx context.Context) {
	r.send(ctx, "Is there an immediate danger? Enter 'y' or 'n'.")
	r.state = stateAskDanger
}

func (r *Resolution) askContentOutcome(ctx context.Context) {
	r.promptChoice(ctx, "Choose outcome for the reported content.", contentOutcomes)
	r.state = stateAskContentOutcome
}

func (r *Resolution) resolveMaliciousReporter(ctx context.Context, choice int) {
	reporter := r.c.ReporterAccount
	if err := r.strikes.AddMalicious(ctx, reporter); err != nil {
		r.logger.WithError(err).Error("cant add malicious strike")
	}
	r.clearMark(ctx)

	switch choice {
	case 0:
		r.dm(ctx, reporter, "WARNING: please do not send malicious reports!")
	case 1:
		if err := r.strikes.SuspendReporter(ctx, reporter, time.Now()); err != nil {
			r.logger.WithError(err).Error("cant suspend reporter")
		}
		r.dm(ctx, reporter, fmt.Sprintf(
			"Your report feature will be suspended for %s for sending malicious reports!",
			r.strikes.SuspendDuration()))
	}
}

func (r *Resolution) resolveReportedAccount(ctx context.Context, choice int) {
	if choice == 0 {
		return
	}
	if err := r.strikes.AddReported(ctx, r.c.ReportedAccount); err != nil {
		r.logger.WithError(err).Error("cant add reported strike")
	}
	switch choice {
	case 1:
		r.dm(ctx, r.c.ReportedAccount, fmt.Sprintf(
			"WARNING: please do not send scam messages. Your account will be temporarily deactivated for %d days.",
			r.penalties.ShortDeactivationDays))
	case 2:
		r.dm(ctx, r.c.ReportedAccount, fmt.Sprintf(
			"WARNING: please do not send scam messages. Your account will be temporarily deactivated for %d days.",
			r.penalties.LongDeactivationDays))
	case 3:
		r.dm(ctx, r.c.ReportedAccount,
			"WARNING: please do not send scam messages. Your account will be permanently deactivated.")
	}
}

func (r *Resolution) finish(ctx context.Context, text string) bool {
	r.send(ctx, text)
	r.state = stateDone
	return true
}

// clearMark removes the reaction the pipeline left on the reported
// message; a failure here is not distinguished from success.
func (r *Resolution) clearMark(ctx context.Context) {
	mark := platform.ReactionReported
	if r.c.AutoFlagged {
		mark = platform.ReactionPending
	}
	if err := r.chat.RemoveOwnReaction(ctx, r.c.Ref, mark); err != nil {
		r.logger.WithError(err).Debug("cant remove mark")
	}
}

func (r *Resolution) react(ctx context.Context, emoji string) {
	if err := r.chat.AddReaction(ctx, r.c.Ref, emoji); err != nil {
		r.logger.WithError(err).Warn("cant add reaction")
	}
}

func (r *Resolution) send(ctx context.Context, text string) {
	if err := r.chat.SendMessage(ctx, r.modChannelID, text); err != nil {
		r.logger.WithError(err).Warn("cant message mod channel")
	}
}

func (r *Resolution) dm(ctx context.Context, userID, text string) {
	if err := r.chat.SendDM(ctx, userID, text); err != nil {
		r.logger.WithError(err).Warn("cant dm user")
	}
}

func (r *Resolution) promptChoice(ctx context.Context, header string, choices []string) {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(fmt.Sprintf("\n\nPlease enter a number between 1 and %d:\n", len(choices)))
	for i, choice := range choices {
		sb.WriteString(fmt.Sprintf("%d) %s\n", i+1, choice))
	}
	r.send(ctx, sb.String())
}

func parseYesNo(reply string) (yes, ok bool) {
	switch reply {
	case "y":
		return true, true
	case "n":
		return false, true
	}
	return false, false
}

func parseChoice(reply string, count int) (int, bool) {
	n, err := strconv.Atoi(reply)
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}
