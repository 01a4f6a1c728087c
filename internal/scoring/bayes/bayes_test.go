package bayes

import (
	"math"
	"testing"
)

// A tiny hand-computed model: "bitcoin" and "giveaway" lean scam,
// "hello" and "weather" lean ham, uniform priors.
const testModel = `{
	"class_log_prior": [-0.6931471805599453, -0.6931471805599453],
	"feature_log_prob": [
		[-0.5, -3.0, -3.0, -0.5],
		[-3.0, -0.5, -0.5, -3.0]
	],
	"vocabulary": {"hello": 0, "bitcoin": 1, "giveaway": 2, "weather": 3}
}`

func loadTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := Parse([]byte(testModel))
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}
	return model
}

func TestPredictProbabilitySeparatesClasses(t *testing.T) {
	t.Parallel()
	model := loadTestModel(t)

	scam := model.PredictProbability("free bitcoin giveaway click here")
	ham := model.PredictProbability("hello how is the weather")

	if scam <= 0.5 {
		t.Fatalf("expected scam text to score above 0.5, got %f", scam)
	}
	if ham >= 0.5 {
		t.Fatalf("expected ham text to score below 0.5, got %f", ham)
	}
}

func TestPredictProbabilityUnknownTokensUsePrior(t *testing.T) {
	t.Parallel()
	model := loadTestModel(t)

	p := model.PredictProbability("zzz qqq unseen words only")
	if math.Abs(p-0.5) > 1e-9 {
		t.Fatalf("expected prior probability 0.5 for unknown tokens, got %f", p)
	}
}

func TestParseRejectsMismatchedVocabulary(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{
		"class_log_prior": [-0.7, -0.7],
		"feature_log_prob": [[-1.0], [-1.0, -2.0]],
		"vocabulary": {"a": 0, "b": 1}
	}`))
	if err == nil {
		t.Fatal("expected parse error for mismatched feature matrix")
	}
}
