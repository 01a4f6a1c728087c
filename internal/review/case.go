package review

import (
	"time"

	"github.com/pborman/uuid"

	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/scoring"
)

type Category string

const (
	CategoryCompromised Category = "This account may be compromised"
	CategoryHarassment  Category = "Harassment / Offensive Content"
	CategoryDanger      Category = "Immediate Danger"
	CategoryScam        Category = "Fraud / Scam"
)

func Categories() []Category {
	return []Category{CategoryCompromised, CategoryHarassment, CategoryDanger, CategoryScam}
}

type (
	// IntakeRecord is the structured outcome of the user report flow.
	IntakeRecord struct {
		Category        Category
		SubCategory     string
		CryptoScam      bool
		Justification   []string
		AccountStatus   string
		ImmediateDanger bool
		UserAction      string
		ReporterName    string
	}

	// Case is one unit of moderation work. Exactly one of Scores and
	// Intake is set: auto-flagged cases carry scores, user reports
	// carry an intake record.
	Case struct {
		ID              string
		Content         string
		ReportedAccount string
		ReportedName    string
		ReporterAccount string
		AutoFlagged     bool
		Scores          scoring.ScoreMap
		Intake          *IntakeRecord
		Ref             platform.MessageRef
		ReportedAt      time.Time
		AbuseStrikes    int
	}
)

func NewAutoCase(msg platform.Message, scores scoring.ScoreMap, at time.Time) *Case {
	return &Case{
		ID:              uuid.New(),
		Content:         msg.Content,
		ReportedAccount: msg.AuthorID,
		ReportedName:    msg.AuthorName,
		AutoFlagged:     true,
		Scores:          scores,
		Ref:             msg.Ref,
		ReportedAt:      at,
	}
}

func NewUserCase(target platform.Message, reporterID string, intake *IntakeRecord, at time.Time) *Case {
	return &Case{
		ID:              uuid.New(),
		Content:         target.Content,
		ReportedAccount: target.AuthorID,
		ReportedName:    target.AuthorName,
		ReporterAccount: reporterID,
		Scores:          nil,
		Intake:          intake,
		Ref:             target.Ref,
		ReportedAt:      at,
	}
}

// DangerRank is the queue ordering rank: 0 for urgent review, 1
// otherwise. Auto-flagged cases are never urgent on their own.
func (c *Case) DangerRank() int {
	if !c.AutoFlagged && c.Intake != nil && c.Intake.ImmediateDanger {
		return 0
	}
	return 1
}
