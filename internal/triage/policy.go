package triage

import (
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/scoring"
)

type Verdict string

const (
	// VerdictPass leaves the message alone.
	VerdictPass Verdict = "pass"
	// VerdictSuppress marks the message objectionable without review;
	// the platform-level signal is considered sufficient.
	VerdictSuppress Verdict = "suppress"
	// VerdictEscalate queues the message for moderator review.
	VerdictEscalate Verdict = "escalate"
)

type Policy struct {
	thresholds config.Triage
	logger     *log.Entry
}

func NewPolicy(thresholds config.Triage) *Policy {
	return &Policy{
		thresholds: thresholds,
		logger:     log.WithField("component", "triage"),
	}
}

// Classify applies the two-threshold policy: any score above the
// moderation threshold suppresses outright, regardless of the rest;
// otherwise any score in the suspicion band escalates to review.
func (p *Policy) Classify(scores scoring.ScoreMap) Verdict {
	suspicious := false
	for attr, score := range scores {
		if score > p.thresholds.ModerationThreshold {
			p.logger.WithFields(log.Fields{"attribute": attr, "score": score}).Debug("suppressing message")
			return VerdictSuppress
		}
		if score > p.thresholds.SuspicionThreshold {
			suspicious = true
		}
	}
	if suspicious {
		return VerdictEscalate
	}
	return VerdictPass
}
