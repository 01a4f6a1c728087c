package openai

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/scoring"
)

const DefaultModel = "gpt-4o-mini"

// Scorer asks a chat-completion model to rate a text against a fixed
// set of abuse attributes, as a drop-in alternative to the HTTP
// comment-analysis backend.
type Scorer struct {
	client     *openai.Client
	model      string
	attributes []string
	logger     *log.Entry
}

func New(apiKey, model, baseURL string, attributes []string) *Scorer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Scorer{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		attributes: attributes,
		logger:     log.WithField("component", "llm_scorer"),
	}
}

func (s *Scorer) Score(ctx context.Context, text string) (scoring.ScoreMap, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0.02,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: s.systemPrompt(),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to score with LLM")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty LLM response")
	}

	scores := scoring.ScoreMap{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &scores); err != nil {
		return nil, errors.Wrap(err, "unmarshal LLM scores")
	}
	for attr, v := range scores {
		if v < 0 || v > 1 {
			s.logger.WithFields(log.Fields{"attribute": attr, "value": v}).Warn("score out of range, clamping")
			if v < 0 {
				scores[attr] = 0
			} else {
				scores[attr] = 1
			}
		}
	}
	return scores, nil
}

func (s *Scorer) systemPrompt() string {
	return "You are a content moderation scorer. Rate the user message for each of the following attributes " +
		"with a probability between 0 and 1 and respond with a single JSON object mapping attribute to score, " +
		"nothing else: " + strings.Join(s.attributes, ", ")
}
