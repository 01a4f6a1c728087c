package bayes

import (
	"math"
	"os"
	"regexp"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type (
	// Model is a multinomial naive Bayes text classifier loaded from a
	// JSON export of a trained model. Class index 1 is the positive
	// (scam) class.
	Model struct {
		classLogPrior  []float64
		featureLogProb [][]float64
		vocabulary     map[string]int
	}

	modelFile struct {
		ClassLogPrior  []float64      `json:"class_log_prior"`
		FeatureLogProb [][]float64    `json:"feature_log_prob"`
		Vocabulary     map[string]int `json:"vocabulary"`
	}
)

var tokenPattern = regexp.MustCompile(`[a-z0-9']+`)

func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read classifier model")
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Model, error) {
	file := modelFile{}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "unmarshal classifier model")
	}
	if len(file.ClassLogPrior) != 2 || len(file.FeatureLogProb) != 2 {
		return nil, errors.Errorf("expected binary classifier, got %d classes", len(file.ClassLogPrior))
	}
	for class, probs := range file.FeatureLogProb {
		if len(probs) != len(file.Vocabulary) {
			return nil, errors.Errorf("class %d has %d features, vocabulary has %d",
				class, len(probs), len(file.Vocabulary))
		}
	}
	log.WithField("vocabulary", len(file.Vocabulary)).Debug("loaded scam classifier")
	return &Model{
		classLogPrior:  file.ClassLogPrior,
		featureLogProb: file.FeatureLogProb,
		vocabulary:     file.Vocabulary,
	}, nil
}

// PredictProbability returns P(scam | text) in [0,1].
func (m *Model) PredictProbability(text string) float64 {
	logProbs := []float64{m.classLogPrior[0], m.classLogPrior[1]}
	for _, token := range tokenPattern.FindAllString(text, -1) {
		idx, ok := m.vocabulary[token]
		if !ok {
			continue
		}
		logProbs[0] += m.featureLogProb[0][idx]
		logProbs[1] += m.featureLogProb[1][idx]
	}

	// log-sum-exp keeps the normalization stable for long messages
	max := math.Max(logProbs[0], logProbs[1])
	denom := math.Exp(logProbs[0]-max) + math.Exp(logProbs[1]-max)
	return math.Exp(logProbs[1]-max) / denom
}
