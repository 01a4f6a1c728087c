package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/errs"
	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/review"
)

type State string

const (
	StateStart                 State = "start"
	StateAwaitingTarget        State = "awaiting_target"
	StateAwaitingCategory      State = "awaiting_category"
	StateAwaitingSubcategory   State = "awaiting_subcategory"
	StateAwaitingJustification State = "awaiting_justification"
	StateAwaitingCompromise    State = "awaiting_compromise"
	StateAwaitingBlock         State = "awaiting_block"
	StateSubmitted             State = "submitted"
	StateCancelled             State = "cancelled"
)

var (
	StartKeywords  = map[string]struct{}{"r": {}, "report": {}}
	CancelKeywords = map[string]struct{}{"c": {}, "cancel": {}}
	HelpKeywords   = map[string]struct{}{"h": {}, "help": {}}
)

const (
	dangerAck = "Thank you for the information. Our content moderation team will review the message and notify " +
		"the local authorities if necessary. Please contact 911 for immediate support."
	normalAck = "Thank you for the information. Our content moderation team will review the message and reach " +
		"out if needed. No further action is required on your part."
)

type step int

const (
	stepSubcategory step = iota
	stepJustification
	stepCompromise
	stepBlock
)

// categorySteps is the decision tree: each category carries its own
// required step sequence, walked in order before submission.
var categorySteps = map[review.Category][]step{
	review.CategoryCompromised: {stepJustification, stepBlock},
	review.CategoryHarassment:  {stepSubcategory, stepJustification, stepCompromise, stepBlock},
	review.CategoryDanger:      {},
	review.CategoryScam:        {stepSubcategory, stepJustification, stepCompromise, stepBlock},
}

var subcategories = map[review.Category][]string{
	review.CategoryHarassment: {
		"Hate speech", "Cyberbullying", "Sexual Content", "Illegal Activity", "Fake News",
		"Other / I don't like this post",
	},
	review.CategoryScam: {
		"Cryptocurrency Scam", "Financial Scam", "Phishing", "Impersonation", "Other",
	},
}

const cryptoScamSubcategory = "Cryptocurrency Scam"

type (
	// TargetResolver looks up the message a report points at.
	TargetResolver interface {
		FetchMessage(ctx context.Context, ref platform.MessageRef) (*platform.Message, error)
	}

	// Submitter accepts the finished report. AlreadyReported is the
	// idempotent duplicate guard consulted as soon as the target is
	// identified.
	Submitter interface {
		AlreadyReported(ctx context.Context, reporterID, messageURL string) bool
		SubmitUserReport(ctx context.Context, session *Session) (ok bool, reason string)
	}

	// Session drives one reporting user through intake. Event-driven:
	// each inbound DM advances the machine and yields the replies to
	// send back.
	Session struct {
		ReporterID   string
		ReporterName string
		Target       *platform.Message
		MessageURL   string
		Timestamp    time.Time
		Record       *review.IntakeRecord

		state     State
		pending   []step
		resolver  TargetResolver
		submitter Submitter
		logger    *log.Entry
	}
)

func NewSession(resolver TargetResolver, submitter Submitter, reporterID, reporterName string) *Session {
	return &Session{
		ReporterID:   reporterID,
		ReporterName: reporterName,
		Record:       &review.IntakeRecord{ReporterName: reporterName},
		state:        StateStart,
		resolver:     resolver,
		submitter:    submitter,
		logger:       log.WithFields(log.Fields{"component": "report", "reporter": reporterID}),
	}
}

func (s *Session) State() State { return s.state }

// Completed reports whether the session reached a terminal state and
// should be torn down.
func (s *Session) Completed() bool {
	return s.state == StateSubmitted || s.state == StateCancelled
}

func (s *Session) HandleMessage(ctx context.Context, text string) []string {
	reply := strings.ToLower(strings.TrimSpace(text))
	if _, ok := CancelKeywords[reply]; ok && !s.Completed() {
		s.state = StateCancelled
		return []string{"Report cancelled. Have a nice day!"}
	}

	switch s.state {
	case StateStart:
		s.state = StateAwaitingTarget
		return []string{
			"Thank you for starting the reporting process. Say `help` at any time for more information.\n\n" +
				"Please copy paste the link to the message you want to report.\n" +
				"You can obtain this link by right-clicking the message and clicking `Copy Message Link`.",
		}

	case StateAwaitingTarget:
		return s.identifyTarget(ctx, text)

	case StateAwaitingCategory:
		choice, ok := parseChoice(reply, len(review.Categories()))
		if !ok {
			return nil
		}
		return s.categorize(ctx, review.Categories()[choice])

	case StateAwaitingSubcategory:
		options := subcategories[s.Record.Category]
		choice, ok := parseChoice(reply, len(options))
		if !ok {
			return nil
		}
		s.Record.SubCategory = options[choice]
		if s.Record.Category == review.CategoryScam && options[choice] == cryptoScamSubcategory {
			s.Record.CryptoScam = true
		}
		return s.advance(ctx)

	case StateAwaitingJustification:
		switch reply {
		case "skip", "done":
			return s.advance(ctx)
		default:
			s.Record.Justification = append(s.Record.Justification, text)
			return nil
		}

	case StateAwaitingCompromise:
		switch reply {
		case "y":
			s.Record.AccountStatus = "Reported to be compromised."
		case "u":
			s.Record.AccountStatus = "Reported may be compromised."
		case "n":
			s.Record.AccountStatus = "Reported not compromised."
		default:
			return nil
		}
		return s.advance(ctx)

	case StateAwaitingBlock:
		yes, ok := parseYesNo(reply)
		if !ok {
			return nil
		}
		if yes {
			s.Record.UserAction = fmt.Sprintf("Reporter blocked %s.", s.Target.AuthorName)
			blocked := fmt.Sprintf("MOCKED: %s is blocked!", s.Target.AuthorName)
			return append([]string{blocked}, s.advance(ctx)...)
		}
		return s.advance(ctx)
	}
	return nil
}

func (s *Session) identifyTarget(ctx context.Context, text string) []string {
	ref, ok := platform.ParseRef(text)
	if !ok {
		return []string{"I'm sorry, I couldn't read that link. Please try again or say `cancel` to cancel."}
	}

	target, err := s.resolver.FetchMessage(ctx, ref)
	if err != nil {
		s.logger.WithError(err).Debug("cant fetch reported message")
		return []string{"It seems this message was deleted or never existed. Please try again or say `cancel` to cancel."}
	}

	messageURL := ref.URL()
	if s.submitter.AlreadyReported(ctx, s.ReporterID, messageURL) {
		s.state = StateCancelled
		return []string{"Report cancelled: " + errs.ErrDuplicateReport.Error() + "."}
	}

	s.Target = target
	s.MessageURL = messageURL
	s.Timestamp = time.Now()
	s.state = StateAwaitingCategory

	return []string{
		fmt.Sprintf("I found this message:\n```%s: %s```", target.AuthorName, target.Content),
		promptChoice("Please tell us a bit more about this message.", categoryLabels()),
	}
}

func (s *Session) categorize(ctx context.Context, category review.Category) []string {
	s.Record.Category = category
	s.pending = append([]step{}, categorySteps[category]...)

	switch category {
	case review.CategoryCompromised:
		s.Record.AccountStatus = "Reported to be compromised."
	case review.CategoryDanger:
		s.Record.ImmediateDanger = true
	}
	return s.advance(ctx)
}

// advance moves to the next pending step, submitting once the
// sequence is exhausted.
func (s *Session) advance(ctx context.Context) []string {
	if len(s.pending) == 0 {
		return s.submit(ctx)
	}
	next := s.pending[0]
	s.pending = s.pending[1:]

	switch next {
	case stepSubcategory:
		s.state = StateAwaitingSubcategory
		return []string{promptChoice("", subcategories[s.Record.Category])}
	case stepJustification:
		s.state = StateAwaitingJustification
		return []string{"Would you like to provide more information?\nEnter `skip` to skip this step, and `done` when finished."}
	case stepCompromise:
		s.state = StateAwaitingCompromise
		return []string{"Do you think this account has been compromised? Enter 'y', 'n', or 'u' for 'unsure'."}
	case stepBlock:
		s.state = StateAwaitingBlock
		return []string{"Would you like to block this user? Enter 'y' or 'n'."}
	}
	return nil
}

func (s *Session) submit(ctx context.Context) []string {
	ok, reason := s.submitter.SubmitUserReport(ctx, s)
	if !ok {
		s.state = StateCancelled
		return []string{fmt.Sprintf("Your report is cancelled due to the following reason:\n%s", reason)}
	}
	s.state = StateSubmitted
	if s.Record.ImmediateDanger {
		return []string{dangerAck}
	}
	return []string{normalAck}
}

func categoryLabels() []string {
	categories := review.Categories()
	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, string(c))
	}
	return labels
}

func promptChoice(header string, choices []string) string {
	var sb strings.Builder
	if header != "" {
		sb.WriteString(header)
	}
	sb.WriteString(fmt.Sprintf("\n\nPlease enter a number between 1 and %d:\n", len(choices)))
	for i, choice := range choices {
		sb.WriteString(fmt.Sprintf("%d) %s\n", i+1, choice))
	}
	return sb.String()
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
