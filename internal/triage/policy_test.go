package triage

import (
	"testing"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/scoring"
)

func testPolicy() *Policy {
	return NewPolicy(config.Triage{SuspicionThreshold: 0.5, ModerationThreshold: 0.9})
}

func TestClassifySuppressWinsOverOtherAttributes(t *testing.T) {
	t.Parallel()
	policy := testPolicy()

	cases := []scoring.ScoreMap{
		{"PROFANITY": 0.95},
		{"PROFANITY": 0.95, "TOXICITY": 0.1},
		{"PROFANITY": 0.95, "CRYPTO_SCAM": 0.7},
		{"THREAT": 0.91, "TOXICITY": 0.99},
	}
	for _, scores := range cases {
		if verdict := policy.Classify(scores); verdict != VerdictSuppress {
			t.Fatalf("expected suppress for %v, got %s", scores, verdict)
		}
	}
}

func TestClassifyEscalatesSuspicionBand(t *testing.T) {
	t.Parallel()
	policy := testPolicy()

	if verdict := policy.Classify(scoring.ScoreMap{"CRYPTO_SCAM": 0.65}); verdict != VerdictEscalate {
		t.Fatalf("expected escalate, got %s", verdict)
	}
	// exactly at the moderation threshold still belongs to the band
	if verdict := policy.Classify(scoring.ScoreMap{"TOXICITY": 0.9}); verdict != VerdictEscalate {
		t.Fatalf("expected escalate at moderation threshold, got %s", verdict)
	}
}

func TestClassifyPassesLowScores(t *testing.T) {
	t.Parallel()
	policy := testPolicy()

	if verdict := policy.Classify(scoring.ScoreMap{"TOXICITY": 0.1, "PROFANITY": 0.5}); verdict != VerdictPass {
		t.Fatalf("expected pass at or below suspicion threshold, got %s", verdict)
	}
	if verdict := policy.Classify(scoring.ScoreMap{}); verdict != VerdictPass {
		t.Fatalf("expected pass for empty score map, got %s", verdict)
	}
}

func TestThresholdValidation(t *testing.T) {
	t.Parallel()

	if err := (config.Triage{SuspicionThreshold: 0.5, ModerationThreshold: 0.9}).Validate(); err != nil {
		t.Fatalf("valid thresholds rejected: %v", err)
	}
	if err := (config.Triage{SuspicionThreshold: 0.9, ModerationThreshold: 0.5}).Validate(); err == nil {
		t.Fatal("expected inverted thresholds to be rejected")
	}
	if err := (config.Triage{SuspicionThreshold: 0.5, ModerationThreshold: 0.5}).Validate(); err == nil {
		t.Fatal("expected equal thresholds to be rejected")
	}
	if err := (config.Triage{SuspicionThreshold: -0.1, ModerationThreshold: 0.5}).Validate(); err == nil {
		t.Fatal("expected out-of-range threshold to be rejected")
	}
}
