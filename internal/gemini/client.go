package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/notcelab/notce-backend/internal/model"
)

// Common generation errors.
var (
	ErrEmptyResponse   = errors.New("empty model response")
	ErrInvalidQuestion = errors.New("generated question failed validation")
	ErrInvalidCase     = errors.New("generated case study failed validation")
)

// Client wraps the Gemini API behind typed generation methods. All methods
// request application/json output and validate the decoded payload before
// returning it.
type Client struct {
	api     *genai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a Gemini client for the given API key and model name. Every
// generation call is bounded by timeout.
func New(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		api:     api,
		model:   modelName,
		timeout: timeout,
		logger:  logger.With().Str("component", "gemini").Logger(),
	}, nil
}

// bound caps ctx with the client timeout when one is configured.
func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// generateJSON runs a prompt in JSON mode and decodes the response into out.
// Markdown code fences are stripped before decoding since models sometimes
// wrap JSON-mode output anyway.
func (c *Client) generateJSON(ctx context.Context, prompt string, out any) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	resp, err := c.api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	raw := CleanJSONText(resp.Text())
	if raw == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Warn().Err(err).Str("model", c.model).Msg("Undecodable model output")
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// generateText runs a prompt in plain-text mode and returns the trimmed text.
func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	resp, err := c.api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// PracticeQuestion generates a standalone multiple-choice question for a
// study session. topicsCovered steers the model away from repeats.
func (c *Client) PracticeQuestion(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty, questionNumber, totalQuestions int, topicsCovered []string) (*model.GeneratedQuestion, error) {
	prompt := practiceQuestionPrompt(domain, difficulty, questionNumber, totalQuestions, topicsCovered)

	var q model.GeneratedQuestion
	if err := c.generateJSON(ctx, prompt, &q); err != nil {
		return nil, err
	}
	if err := ValidateQuestion(&q); err != nil {
		c.logger.Warn().Err(err).Str("domain", string(domain)).Msg("Rejected generated question")
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return &q, nil
}

// CaseStudy generates a full multi-question clinical case.
func (c *Client) CaseStudy(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty) (*model.GeneratedCase, error) {
	prompt := caseStudyPrompt(domain, difficulty)

	var cs model.GeneratedCase
	if err := c.generateJSON(ctx, prompt, &cs); err != nil {
		return nil, err
	}
	if err := ValidateCase(&cs); err != nil {
		c.logger.Warn().Err(err).Str("domain", string(domain)).Msg("Rejected generated case study")
		return nil, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	return &cs, nil
}

// Pivot generates a what-if variant of an answered question: one clinical
// variable changed, with an explanation of how the priority shifts.
func (c *Client) Pivot(ctx context.Context, stem, correctLabel, correctRationale string) (*model.PivotScenario, error) {
	prompt := pivotPrompt(stem, correctLabel, correctRationale)

	var p model.PivotScenario
	if err := c.generateJSON(ctx, prompt, &p); err != nil {
		return nil, err
	}
	if p.PivotVariable == "" || p.NewScenarioSnippet == "" || p.ChangeExplanation == "" {
		return nil, ErrEmptyResponse
	}
	return &p, nil
}

// RationaleTip generates a short tip that ties the current question's
// rationale to the learner's path through the preceding linked questions.
func (c *Client) RationaleTip(ctx context.Context, stem, correctRationale string, rc model.RationaleContext) (string, error) {
	return c.generateText(ctx, rationaleTipPrompt(stem, correctRationale, rc))
}

// EvidenceIndicators asks the model to extract the key clinical indicator
// phrases from a vignette, plus a perceptual-training tip comparing them to
// what the learner highlighted. Indicators whose text does not occur verbatim
// in the vignette are dropped by the caller during position resolution.
func (c *Client) EvidenceIndicators(ctx context.Context, vignette, stem, correctAnswer, correctRationale string, userHighlightTexts []string) ([]model.ExpertIndicator, string, error) {
	prompt := evidenceIndicatorsPrompt(vignette, stem, correctAnswer, correctRationale, userHighlightTexts)

	var out struct {
		ExpertIndicators []model.ExpertIndicator `json:"expert_indicators"`
		PerceptualTip    string                  `json:"perceptual_tip"`
	}
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return nil, "", err
	}
	return out.ExpertIndicators, out.PerceptualTip, nil
}
