package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"billbook/internal/calc"
	"billbook/internal/logger"
	"billbook/internal/units"
	"billbook/pkg/models"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// ChatGPTConfig configures the model backed parser
type ChatGPTConfig struct {
	Model       string  // gpt-4o-mini, gpt-4o
	MaxRetries  int     // ChatGPT retry attempts
	Temperature float32 // ChatGPT temperature
}

// DefaultChatGPTConfig returns the configuration used when none is given.
func DefaultChatGPTConfig() ChatGPTConfig {
	return ChatGPTConfig{
		Model:       openai.GPT4oMini,
		MaxRetries:  3,
		Temperature: 0,
	}
}

// ChatGPTParser asks an OpenAI chat model to extract the line item and
// falls back to another parser when every attempt fails.
type ChatGPTParser struct {
	client   *openai.Client
	config   ChatGPTConfig
	fallback Parser
	log      zerolog.Logger
}

// NewChatGPTParser creates a parser for the given API key. The heuristic
// parser is used as fallback.
func NewChatGPTParser(apiKey string, config ChatGPTConfig) *ChatGPTParser {
	return NewChatGPTParserWithDeps(openai.NewClient(apiKey), config, NewHeuristicParser())
}

// NewChatGPTParserWithDeps creates a parser with explicit dependencies
func NewChatGPTParserWithDeps(client *openai.Client, config ChatGPTConfig, fallback Parser) *ChatGPTParser {
	defaults := DefaultChatGPTConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	return &ChatGPTParser{
		client:   client,
		config:   config,
		fallback: fallback,
		log:      logger.WithComponent("voice-chatgpt"),
	}
}

// Parse implements Parser.
func (p *ChatGPTParser) Parse(ctx context.Context, text string) (models.ParsedItem, error) {
	const op = "ChatGPTParser.Parse"

	if strings.TrimSpace(text) == "" {
		return models.ParsedItem{}, ErrEmptyInput
	}

	item, err := p.extract(ctx, text)
	if err == nil {
		return item, nil
	}
	if ctx.Err() != nil {
		return models.ParsedItem{}, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if p.fallback == nil {
		return models.ParsedItem{}, fmt.Errorf("%s: %w", op, err)
	}

	p.log.Warn().
		Err(err).
		Msg("ChatGPT could not parse the item, using offline parser")
	return p.fallback.Parse(ctx, text)
}

func (p *ChatGPTParser) extract(ctx context.Context, text string) (models.ParsedItem, error) {
	p.log.Debug().
		Str("text", text).
		Str("model", p.config.Model).
		Msg("Sending item parse request to ChatGPT")

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.ParsedItem{}, err
		}

		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.config.Model,
			Temperature: p.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt(),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			MaxTokens: 300,
		})
		if err != nil {
			lastErr = err
			p.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", p.config.MaxRetries).
				Msg("ChatGPT request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from ChatGPT")
			continue
		}

		content := resp.Choices[0].Message.Content
		p.log.Debug().
			Str("response", content).
			Msg("Received ChatGPT response")

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(stripFence(content)), &raw); err != nil {
			lastErr = fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
			p.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT response, retrying")
			continue
		}

		item := models.ParsedItem{
			Description: strings.TrimSpace(getString(raw, "description")),
			Length:      getFloat(raw, "length"),
			Width:       getFloat(raw, "width"),
			Height:      getFloat(raw, "height"),
			Quantity:    getFloat(raw, "quantity"),
			Rate:        getFloat(raw, "rate"),
			Unit:        units.Canonical(getString(raw, "unit")),
			Floor:       strings.TrimSpace(getString(raw, "floor")),
		}
		if item.Description == "" {
			lastErr = fmt.Errorf("ChatGPT response has no description")
			continue
		}
		return item, nil
	}

	return models.ParsedItem{}, fmt.Errorf("all %d attempts failed: %w", p.config.MaxRetries, lastErr)
}

func systemPrompt() string {
	ids := make([]string, 0)
	for _, u := range units.All() {
		ids = append(ids, u.ID)
	}
	return `You extract one construction work line item from a contractor's spoken note.
Reply with a single JSON object and nothing else, using these keys:
  "description": short work description without numbers or units
  "length", "width", "height": dimensions as numbers, 0 when not spoken
  "quantity": count or repeat multiplier, 0 when not spoken
  "rate": price per unit in rupees, 0 when not spoken
  "unit": one of ` + strings.Join(ids, ", ") + `
  "floor": floor name such as "First floor", empty when not spoken
"10 by 12" means length 10 and width 12. Use "brass" for sand, aggregate or
earthwork measured in brass. Use "sq.ft" for area work when no unit is said.`
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func getString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// getFloat accepts numbers and numeric strings ("₹ 4,000").
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return calc.Decimal(v).InexactFloat64()
	case string:
		return calc.Coerce(v)
	}
	return 0
}
