package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/db"
	"github.com/iamwavecut/modbot/internal/errs"
	"github.com/iamwavecut/modbot/internal/infra"
	"github.com/iamwavecut/modbot/internal/moderation"
	"github.com/iamwavecut/modbot/internal/observability"
	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/report"
	"github.com/iamwavecut/modbot/internal/review"
	"github.com/iamwavecut/modbot/internal/scoring"
	"github.com/iamwavecut/modbot/internal/triage"
)

const maxRecoveries = 10

const helpText = "Use the `report` command to begin the reporting process.\n" +
	"Use the `cancel` command to cancel the report process."

const nextReportCommand = "next report"

type (
	scorer interface {
		Score(ctx context.Context, text string) (scoring.ScoreMap, error)
	}

	ledger interface {
		InsertUserReport(ctx context.Context, r *db.UserReport) error
		HasUserReport(ctx context.Context, reporterID, messageURL string) (bool, error)
	}

	// Engine is the dispatch loop tying intake, triage and review
	// together. All state transitions happen on the single run
	// goroutine, so sessions and the active resolution need no locks.
	Engine struct {
		chat         platform.Chat
		scorer       scorer
		policy       *triage.Policy
		blacklist    *moderation.Blacklist
		strikes      *moderation.Strikes
		queue        *review.Queue
		ledger       ledger
		modChannelID string
		penalties    config.Penalties

		events   chan platform.Event
		sessions map[string]*report.Session
		active   *moderation.Resolution
		cancel   context.CancelFunc
		done     chan struct{}
		doneOnce sync.Once
		logger   *log.Entry
	}
)

func New(
	chat platform.Chat,
	sc scorer,
	policy *triage.Policy,
	blacklist *moderation.Blacklist,
	strikes *moderation.Strikes,
	queue *review.Queue,
	ldg ledger,
	modChannelID string,
	penalties config.Penalties,
) *Engine {
	return &Engine{
		chat:         chat,
		scorer:       sc,
		policy:       policy,
		blacklist:    blacklist,
		strikes:      strikes,
		queue:        queue,
		ledger:       ldg,
		modChannelID: modChannelID,
		penalties:    penalties,
		events:       make(chan platform.Event, 256),
		sessions:     map[string]*report.Session{},
		done:         make(chan struct{}),
		logger:       log.WithField("component", "engine"),
	}
}

// Events is the inbound sink the platform adapter feeds.
func (e *Engine) Events() chan<- platform.Event {
	return e.events
}

func (e *Engine) Start(_ context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	infra.GoRecoverable(maxRecoveries, "engine", func() {
		e.run(runCtx)
	})
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	e.cancel()
	select {
	case <-e.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (e *Engine) run(ctx context.Context) {
	// doneOnce keeps a mid-unwind exit from closing done twice if the
	// loop is ever restarted.
	defer e.doneOnce.Do(func() { close(e.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			e.safeDispatch(ctx, ev)
		}
	}
}

// safeDispatch contains a panic to the event that caused it, so one
// poisoned message cannot take the loop down mid-shutdown.
func (e *Engine) safeDispatch(ctx context.Context, ev platform.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(log.Fields{
				"panic":   r,
				"message": ev.Message.Ref.MessageID,
			}).Error("recovered dispatch panic, event dropped")
		}
	}()
	e.dispatch(ctx, ev)
}

func (e *Engine) dispatch(ctx context.Context, ev platform.Event) {
	msg := ev.Message
	if msg.AuthorID == e.chat.SelfID() {
		return
	}

	switch {
	case msg.DM:
		if ev.Edited {
			e.dm(ctx, msg.AuthorID, "Please do not edit your message to me!")
			return
		}
		e.handleDM(ctx, msg)
	case msg.ChannelID == e.modChannelID:
		if ev.Edited {
			return
		}
		e.handleModChannel(ctx, msg)
	default:
		e.evaluate(ctx, msg)
	}
}

func (e *Engine) handleDM(ctx context.Context, msg platform.Message) {
	reply := strings.ToLower(strings.TrimSpace(msg.Content))
	if _, ok := report.HelpKeywords[reply]; ok {
		e.dm(ctx, msg.AuthorID, helpText)
		return
	}

	session, exists := e.sessions[msg.AuthorID]
	if !exists {
		if _, ok := report.StartKeywords[reply]; !ok {
			return
		}
	}

	// Re-checked on every message, not just at session start: a
	// suspension landing mid-intake cancels the in-flight report.
	if e.strikes.IsSuspended(ctx, msg.AuthorID, time.Now()) {
		delete(e.sessions, msg.AuthorID)
		e.dm(ctx, msg.AuthorID, "Sorry, "+errs.ErrReporterSuspended.Error()+".")
		return
	}

	if !exists {
		session = report.NewSession(e.chat, e, msg.AuthorID, msg.AuthorName)
		e.sessions[msg.AuthorID] = session
	}

	for _, out := range session.HandleMessage(ctx, msg.Content) {
		e.dm(ctx, msg.AuthorID, out)
	}
	if session.Completed() {
		delete(e.sessions, msg.AuthorID)
	}
}

func (e *Engine) handleModChannel(ctx context.Context, msg platform.Message) {
	isNext := strings.EqualFold(strings.TrimSpace(msg.Content), nextReportCommand)
	if e.active != nil {
		if isNext {
			e.send(ctx, "Cannot accept the command: "+errs.ErrModeratorBusy.Error()+". Please finish it first.")
			return
		}
		if e.active.Handle(ctx, msg.Content) {
			e.active = nil
			observability.CasesResolved.Inc()
		}
		return
	}

	if !isNext {
		return
	}
	c := e.queue.Pop()
	observability.QueueDepth.Set(float64(e.queue.Len()))
	if c == nil {
		e.send(ctx, "No more reports to be reviewed.")
		return
	}
	e.active = moderation.NewResolution(c, e.chat, e.blacklist, e.strikes, e.modChannelID, e.penalties)
	e.active.Begin(ctx)
}

// evaluate triages one channel message. A blacklist hit suppresses
// without scoring; a scoring failure escalates the message so nothing
// slips through unreviewed.
func (e *Engine) evaluate(ctx context.Context, msg platform.Message) {
	ctx, span := observability.StartSpan(ctx, "evaluate",
		attribute.String("channel", msg.ChannelID))
	defer span.End()

	if e.blacklist.Scan(msg.Content) {
		observability.TriageVerdicts.WithLabelValues(string(triage.VerdictSuppress)).Inc()
		e.suppress(ctx, msg)
		return
	}

	scores, err := e.scorer.Score(ctx, msg.Content)
	if err != nil {
		observability.ScoringFailures.Inc()
		e.logger.WithError(err).Error("cant score message")
		e.escalate(ctx, msg, scoring.ScoreMap{})
		return
	}

	verdict := e.policy.Classify(scores)
	observability.TriageVerdicts.WithLabelValues(string(verdict)).Inc()
	switch verdict {
	case triage.VerdictSuppress:
		e.suppress(ctx, msg)
	case triage.VerdictEscalate:
		e.escalate(ctx, msg, scores)
	}
}

func (e *Engine) suppress(ctx context.Context, msg platform.Message) {
	e.react(ctx, msg.Ref, platform.ReactionSuppressed)
}

func (e *Engine) escalate(ctx context.Context, msg platform.Message, scores scoring.ScoreMap) {
	e.react(ctx, msg.Ref, platform.ReactionPending)
	e.queue.Push(review.NewAutoCase(msg, scores, time.Now()))
	observability.QueueDepth.Set(float64(e.queue.Len()))
}

// AlreadyReported consults the activity ledger; entries never expire.
func (e *Engine) AlreadyReported(ctx context.Context, reporterID, messageURL string) bool {
	reported, err := e.ledger.HasUserReport(ctx, reporterID, messageURL)
	if err != nil {
		e.logger.WithError(err).Error("cant check report ledger")
		return false
	}
	return reported
}

// SubmitUserReport accepts a finished intake session: records the
// ledger entry, marks the reported message and queues the case.
func (e *Engine) SubmitUserReport(ctx context.Context, s *report.Session) (bool, string) {
	if _, err := e.chat.FetchMessage(ctx, s.Target.Ref); err != nil {
		return false, "the reported message no longer exists"
	}
	if e.AlreadyReported(ctx, s.ReporterID, s.MessageURL) {
		return false, errs.ErrDuplicateReport.Error()
	}
	err := e.ledger.InsertUserReport(ctx, &db.UserReport{
		ReporterID: s.ReporterID,
		MessageURL: s.MessageURL,
		ReportedAt: s.Timestamp,
	})
	if err != nil {
		e.logger.WithError(err).Error("cant record user report")
		return false, "your report could not be recorded, please try again later"
	}

	e.react(ctx, s.Target.Ref, platform.ReactionReported)
	e.queue.Push(review.NewUserCase(*s.Target, s.ReporterID, s.Record, s.Timestamp))
	observability.QueueDepth.Set(float64(e.queue.Len()))
	observability.ReportsSubmitted.Inc()
	return true, ""
}

func (e *Engine) send(ctx context.Context, text string) {
	if err := e.chat.SendMessage(ctx, e.modChannelID, text); err != nil {
		e.logger.WithError(err).Error("cant send mod channel message")
	}
}

func (e *Engine) dm(ctx context.Context, userID, text string) {
	if err := e.chat.SendDM(ctx, userID, text); err != nil {
		e.logger.WithError(err).Error("cant send dm")
	}
}

func (e *Engine) react(ctx context.Context, ref platform.MessageRef, emoji string) {
	if err := e.chat.AddReaction(ctx, ref, emoji); err != nil {
		e.logger.WithError(err).Error("cant add reaction")
	}
}
