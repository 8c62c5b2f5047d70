package nutrition

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// recordTool is the tool Claude is forced to call; its input is the record.
const recordTool = "record_nutrition"

// AnthropicGenerator uses the Anthropic Messages API. Structured output
// comes from a single forced tool call whose input schema is the record schema.
type AnthropicGenerator struct {
	client anthropic.Client
}

// NewAnthropicGenerator creates a generator with an explicit API key.
// SDK retries are disabled: one lookup is one request.
func NewAnthropicGenerator(apiKey string, opts ...option.RequestOption) *AnthropicGenerator {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicGenerator{
		client: anthropic.NewClient(all...),
	}
}

// Generate returns the tool input as JSON text. If the model answers with
// text instead, the text is returned and left to the parser.
func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params, err := g.buildParams(req)
	if err != nil {
		return "", err
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			if block.Name == recordTool {
				return string(block.Input), nil
			}
		case "text":
			text += block.Text
		}
	}
	return text, nil
}

func (g *AnthropicGenerator) buildParams(req GenerateRequest) (anthropic.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.Schema != nil {
		props, err := json.Marshal(req.Schema.Properties)
		if err != nil {
			return params, fmt.Errorf("marshal schema: %w", err)
		}
		params.Tools = []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        recordTool,
				Description: param.NewOpt("Record the nutrition facts and recipes for the analyzed food."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: json.RawMessage(props),
					Required:   req.Schema.Required,
				},
			},
		}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: recordTool},
		}
	}

	return params, nil
}
