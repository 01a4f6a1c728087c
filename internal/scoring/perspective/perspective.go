package perspective

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/scoring"
)

const httpTimeout = 10 * time.Second

type (
	// Client scores texts against a Perspective-compatible comment
	// analysis endpoint.
	Client struct {
		apiKey     string
		baseURL    string
		attributes []string
		httpClient *http.Client
		logger     *log.Entry
	}

	analyzeRequest struct {
		Comment             commentBody         `json:"comment"`
		Languages           []string            `json:"languages"`
		RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
		DoNotStore          bool                `json:"doNotStore"`
	}

	commentBody struct {
		Text string `json:"text"`
	}

	analyzeResponse struct {
		AttributeScores map[string]attributeScore `json:"attributeScores"`
	}

	attributeScore struct {
		SummaryScore summaryScore `json:"summaryScore"`
	}

	summaryScore struct {
		Value float64 `json:"value"`
	}
)

func New(apiKey, baseURL string, attributes []string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		attributes: attributes,
		httpClient: &http.Client{Timeout: httpTimeout},
		logger:     log.WithField("component", "perspective"),
	}
}

func (c *Client) Score(ctx context.Context, text string) (scoring.ScoreMap, error) {
	requested := make(map[string]struct{}, len(c.attributes))
	for _, attr := range c.attributes {
		requested[attr] = struct{}{}
	}
	payload, err := json.Marshal(analyzeRequest{
		Comment:             commentBody{Text: text},
		Languages:           []string{"en"},
		RequestedAttributes: requested,
		DoNotStore:          true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal analyze request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "create analyze request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call comment analyzer")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read analyzer response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("comment analyzer status %d: %s", resp.StatusCode, string(body))
	}

	parsed := analyzeResponse{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal analyzer response")
	}

	scores := scoring.ScoreMap{}
	for attr, score := range parsed.AttributeScores {
		scores[attr] = score.SummaryScore.Value
	}
	c.logger.WithField("attributes", len(scores)).Trace("analyzed comment")
	return scores, nil
}
