package openrouter

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"

	"github.com/revrost/go-openrouter"
)

// Name is the registry key for this integration.
const Name = "openrouter"

const defaultModel = "openai/gpt-4.1-mini"

// chatClient is the completion surface of the OpenRouter client.
type chatClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// Integration generates chat completions through the OpenRouter API.
type Integration struct {
	client       chatClient
	model        string
	systemPrompt string
}

// New builds the integration from config options. api_key is required,
// model and system_prompt are optional.
func New(options map[string]string) (*Integration, error) {
	apiKey := options["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: api_key is required")
	}

	model := options["model"]
	if model == "" {
		model = defaultModel
	}

	return &Integration{
		model:        model,
		systemPrompt: options["system_prompt"],
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("mediabot"),
		),
	}, nil
}

// Chat sends the conversation to the configured model and returns the
// assistant reply. The system prompt, when set, is prepended to every
// request.
func (i *Integration) Chat(ctx context.Context, prompts []domain.Prompt) (string, error) {
	messages := make([]openrouter.ChatCompletionMessage, 0, len(prompts)+1)

	if i.systemPrompt != "" {
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role: openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{
				Text: i.systemPrompt,
			},
		})
	}

	for _, prompt := range prompts {
		role := openrouter.ChatMessageRoleUser
		if prompt.Author == domain.System {
			role = openrouter.ChatMessageRoleAssistant
		}

		messages = append(messages, openrouter.ChatCompletionMessage{
			Role: role,
			Content: openrouter.Content{
				Text: prompt.Prompt,
			},
		})
	}

	resp, err := i.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Messages: messages,
		Model:    i.model,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices")
	}

	return resp.Choices[0].Message.Content.Text, nil
}

// Completion is a single model reply presented as a search result.
type Completion struct {
	Text string `json:"text"`
}

func (c Completion) Label() string {
	return c.Text
}

// Search runs the query as a one-shot prompt and returns the completion
// as the only result.
func (i *Integration) Search(ctx context.Context, query string) ([]port.Result, error) {
	reply, err := i.Chat(ctx, []domain.Prompt{{Author: domain.User, Prompt: query}})
	if err != nil {
		return nil, err
	}

	return []port.Result{Completion{Text: reply}}, nil
}

// Resolve always fails, completions are not playable media.
func (i *Integration) Resolve(_ context.Context, _ port.Result) (domain.Media, error) {
	return domain.Media{}, domain.ErrNotPlayable
}
