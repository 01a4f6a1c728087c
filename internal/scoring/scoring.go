package scoring

import (
	"context"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/iamwavecut/modbot/internal/errs"
)

// AttributeCryptoScam is the classifier-produced attribute merged into
// every score map alongside the external toxicity attributes.
const AttributeCryptoScam = "CRYPTO_SCAM"

type (
	// ScoreMap maps an attribute name to a probability in [0,1].
	// It is produced once per message and never merged across messages.
	ScoreMap map[string]float64

	// AttributeScorer produces toxicity attribute scores for a text.
	AttributeScorer interface {
		Score(ctx context.Context, text string) (ScoreMap, error)
	}

	// Classifier predicts the probability that a text is a scam.
	Classifier interface {
		PredictProbability(text string) float64
	}

	Service struct {
		attributes AttributeScorer
		classifier Classifier
		logger     *log.Entry
	}
)

func NewService(attributes AttributeScorer, classifier Classifier) *Service {
	return &Service{
		attributes: attributes,
		classifier: classifier,
		logger:     log.WithField("component", "scorer"),
	}
}

// Score evaluates a message with the external toxicity scorer and the
// scam classifier, merging both into a single score map. A failing
// external call fails the whole evaluation for this message.
func (s *Service) Score(ctx context.Context, text string) (ScoreMap, error) {
	folded := Fold(text)

	scores, err := s.attributes.Score(ctx, folded)
	if err != nil {
		s.logger.WithError(err).Warn("attribute scorer failed")
		return nil, errors.Wrap(errs.ErrScoringFailed, err.Error())
	}
	if scores == nil {
		scores = ScoreMap{}
	}
	scores[AttributeCryptoScam] = s.classifier.PredictProbability(folded)
	s.logger.WithField("attributes", len(scores)).Trace("scored message")
	return scores, nil
}

// Max returns the highest score in the map, or 0 for an empty map.
func (m ScoreMap) Max() float64 {
	var max float64
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and strips combining marks so look-alike
// obfuscation does not dodge the scorers.
func Fold(text string) string {
	stripped, _, err := transform.String(foldTransformer, text)
	if err != nil {
		stripped = text
	}
	return strings.ToLower(stripped)
}
