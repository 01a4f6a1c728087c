package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/iamwavecut/modbot/internal/errs"
)

type attributesStub struct {
	scores ScoreMap
	err    error
	seen   string
}

func (a *attributesStub) Score(_ context.Context, text string) (ScoreMap, error) {
	a.seen = text
	return a.scores, a.err
}

type classifierStub struct{ p float64 }

func (c classifierStub) PredictProbability(_ string) float64 { return c.p }

func TestScoreMergesClassifierAttribute(t *testing.T) {
	t.Parallel()

	s := NewService(&attributesStub{scores: ScoreMap{"TOXICITY": 0.4}}, classifierStub{p: 0.8})

	scores, err := s.Score(context.Background(), "free ETH giveaway")
	if err != nil {
		t.Fatal(err)
	}
	if scores["TOXICITY"] != 0.4 || scores[AttributeCryptoScam] != 0.8 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestScoreFailsWhenAttributesFail(t *testing.T) {
	t.Parallel()

	s := NewService(&attributesStub{err: errors.New("quota exceeded")}, classifierStub{p: 0.8})

	_, err := s.Score(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errs.ErrScoringFailed) {
		t.Errorf("expected scoring failure marker, got %v", err)
	}
}

func TestScoreFoldsBeforeScoring(t *testing.T) {
	t.Parallel()

	attrs := &attributesStub{scores: ScoreMap{}}
	s := NewService(attrs, classifierStub{})

	if _, err := s.Score(context.Background(), "FRÉE Mönéy"); err != nil {
		t.Fatal(err)
	}
	if attrs.seen != "free money" {
		t.Errorf("expected folded text, got %q", attrs.seen)
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]string{
		"Héllo":     "hello",
		"ZA̡ŁGO":     "załgo",
		"plain":     "plain",
		"BITCOIN!!": "bitcoin!!",
	} {
		if got := Fold(input); got != want {
			t.Errorf("Fold(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestScoreMapMax(t *testing.T) {
	t.Parallel()

	if got := (ScoreMap{}).Max(); got != 0 {
		t.Errorf("empty map max = %v", got)
	}
	if got := (ScoreMap{"a": 0.3, "b": 0.9, "c": 0.1}).Max(); got != 0.9 {
		t.Errorf("max = %v", got)
	}
}
