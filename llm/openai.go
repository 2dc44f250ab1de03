package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4o

// OpenAIProvider implements Provider using the official OpenAI SDK.
type OpenAIProvider struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI creates an OpenAI provider. An empty model selects
// DefaultOpenAIModel.
func NewOpenAI(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	chatModel := openai.ChatModel(model)
	if model == "" {
		chatModel = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:               p.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("openai completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Content:    choice.Message.Content,
		Model:      resp.Model,
		StopReason: string(choice.FinishReason),
		TokensIn:   int(resp.Usage.PromptTokens),
		TokensOut:  int(resp.Usage.CompletionTokens),
	}, nil
}
