package review

import (
	"math"
	"strings"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const renderTimeLayout = "2006-01-02 15:04:05.000000"

type (
	caseView struct {
		ReportedContent string             `json:"reported_content"`
		ReportedAccount string             `json:"reported_account,omitempty"`
		ReportTime      string             `json:"report_time"`
		Reporter        string             `json:"reporter,omitempty"`
		Report          *intakeView        `json:"report,omitempty"`
		Scores          map[string]float64 `json:"scores,omitempty"`
		AutoFlagged     bool               `json:"auto_flagged"`
		AbuseStrikes    int                `json:"reported_account_abusive_strike"`
	}

	intakeView struct {
		Category        string   `json:"category"`
		SubCategory     string   `json:"sub_category,omitempty"`
		CryptoScam      bool     `json:"crypto_scam,omitempty"`
		Justification   []string `json:"justification,omitempty"`
		AccountStatus   string   `json:"account_status,omitempty"`
		ImmediateDanger bool     `json:"immediate_danger,omitempty"`
		UserAction      string   `json:"user_action,omitempty"`
	}
)

var structuralReplacer = strings.NewReplacer(
	"{", "", "}", "", "[", "", "]", "", ",", "", `"`, "", `\n`, "  ",
)

// Render produces the human-readable block sent to the mod channel:
// null fields and raw ids/urls omitted, scores rounded to 3 decimals,
// structural punctuation and blank lines stripped.
func Render(c *Case) string {
	view := caseView{
		ReportedContent: c.Content,
		ReportedAccount: c.ReportedName,
		ReportTime:      c.ReportedAt.Format(renderTimeLayout),
		AutoFlagged:     c.AutoFlagged,
		AbuseStrikes:    c.AbuseStrikes,
	}
	if c.Intake != nil {
		view.Reporter = c.Intake.ReporterName
		view.Report = &intakeView{
			Category:        string(c.Intake.Category),
			SubCategory:     c.Intake.SubCategory,
			CryptoScam:      c.Intake.CryptoScam,
			Justification:   c.Intake.Justification,
			AccountStatus:   c.Intake.AccountStatus,
			ImmediateDanger: c.Intake.ImmediateDanger,
			UserAction:      c.Intake.UserAction,
		}
	}
	if len(c.Scores) > 0 {
		rounded := make(map[string]float64, len(c.Scores))
		for attr, v := range c.Scores {
			rounded[attr] = math.Round(v*1000) / 1000
		}
		view.Scores = rounded
	}

	data, err := json.MarshalIndent(view, "", "    ")
	if err != nil {
		log.WithError(err).Error("cant render case")
		return CodeBlock(c.Content)
	}

	stripped := structuralReplacer.Replace(string(data))
	lines := make([]string, 0, strings.Count(stripped, "\n")+1)
	for _, line := range strings.Split(stripped, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return CodeBlock(strings.Join(lines, "\n"))
}

func CodeBlock(text string) string {
	return "```" + text + "```"
}
