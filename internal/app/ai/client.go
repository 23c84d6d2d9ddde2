// Package ai wraps the Anthropic messages API for query understanding and
// grounded answer generation.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"rosterchat/internal/app/models"
)

// FallbackAnswer is returned whenever answer generation fails. Callers surface
// it as prose, never as an error.
const FallbackAnswer = "I couldn't generate an answer at this time."

// maxHistoryTurns bounds how many prior conversation turns are replayed to the
// model on each call.
const maxHistoryTurns = 10

// Client is the LLM surface the answer service depends on.
type Client interface {
	// UnderstandQuestion asks the model for a structured reading of the
	// question. An error means the caller should fall back to the heuristic
	// parser.
	UnderstandQuestion(ctx context.Context, question string, history []models.ChatMessage) (*models.QueryUnderstanding, error)

	// GenerateAnswer produces conversational prose grounded on the supplied
	// context. It never fails: on any error it returns FallbackAnswer.
	GenerateAnswer(ctx context.Context, question, grounding string, history []models.ChatMessage) string
}

// Config holds the Anthropic connection settings.
type Config struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// AnthropicClient implements Client against the Anthropic messages API.
type AnthropicClient struct {
	api       anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    zerolog.Logger
}

// NewAnthropicClient builds a client from config. The API key is required;
// model and token limit fall back to sensible defaults.
func NewAnthropicClient(cfg Config, logger zerolog.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		api:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		logger:    logger.With().Str("component", "ai").Logger(),
	}, nil
}

func (c *AnthropicClient) UnderstandQuestion(ctx context.Context, question string, history []models.ChatMessage) (*models.QueryUnderstanding, error) {
	messages := append(historyMessages(history), anthropic.NewUserMessage(anthropic.NewTextBlock(question)))

	text, err := c.complete(ctx, understandSystemPrompt, messages)
	if err != nil {
		return nil, fmt.Errorf("query understanding failed: %w", err)
	}

	var understanding models.QueryUnderstanding
	if err := json.Unmarshal([]byte(stripFences(text)), &understanding); err != nil {
		c.logger.Warn().Err(err).Str("response", text).Msg("Query understanding returned non-JSON output")
		return nil, fmt.Errorf("query understanding returned invalid JSON: %w", err)
	}
	understanding.Subject = strings.ToUpper(strings.TrimSpace(understanding.Subject))
	understanding.CatalogNbr = strings.TrimSpace(understanding.CatalogNbr)
	if understanding.Intent == "" {
		understanding.Intent = models.IntentGeneral
	}
	return &understanding, nil
}

func (c *AnthropicClient) GenerateAnswer(ctx context.Context, question, grounding string, history []models.ChatMessage) string {
	prompt := question
	if grounding != "" {
		prompt = fmt.Sprintf("Course Information:\n%s\n\nStudent Question: %s", grounding, question)
	}
	messages := append(historyMessages(history), anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	text, err := c.complete(ctx, answerSystemPrompt, messages)
	if err != nil {
		c.logger.Error().Err(err).Msg("Answer generation failed")
		return FallbackAnswer
	}
	if strings.TrimSpace(text) == "" {
		return FallbackAnswer
	}
	return text
}

func (c *AnthropicClient) complete(ctx context.Context, systemPrompt string, messages []anthropic.MessageParam) (string, error) {
	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}

// historyMessages converts the most recent client-supplied turns into
// alternating API messages. Unknown roles and empty turns are skipped.
func historyMessages(history []models.ChatMessage) []anthropic.MessageParam {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		switch turn.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		}
	}
	return messages
}

// stripFences removes a surrounding markdown code fence, if present, so the
// body can be JSON-decoded.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
