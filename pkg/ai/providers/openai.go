package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"retrochat/pkg/ai"
	"retrochat/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Local OpenAI-compatible servers (Ollama among them) ignore the key but
// the header must still be present.
const openAIPlaceholderKey = "ollama"

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI-compatible",
		Description: "Any server exposing /v1/chat/completions, including Ollama",
		EndpointURL: openAIChatURL,
	}, NewOpenAIProvider)
}

func openAIChatURL(cfg config.Config) string {
	return strings.TrimSuffix(cfg.OpenAIBaseURL(), "/") + "/chat/completions"
}

// OpenAIProvider implements the Provider interface using the OpenAI API.
type OpenAIProvider struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAIProvider creates a new OpenAI-compatible provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOpenAIProviderWithHTTPClient(cfg.Config, newHTTPClient(cfg.Config.APITimeoutSeconds))
}

func newOpenAIProviderWithHTTPClient(cfg config.Config, httpClient *http.Client) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	if cfg.OpenAI.MaxRetries < 0 {
		return nil, fmt.Errorf("openai max_retries cannot be negative")
	}

	apiKey := strings.TrimSpace(cfg.OpenAI.APIKey)
	if apiKey == "" {
		apiKey = openAIPlaceholderKey
	}
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.APITimeoutSeconds)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.OpenAIBaseURL()),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.OpenAI.MaxRetries),
	}

	return &OpenAIProvider{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.Model,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return ai.ChatResponse{}, &ai.StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return ai.ChatResponse{}, &ai.TransportError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return ai.ChatResponse{}, &ai.DecodeError{Err: errors.New("response has no choices")}
	}

	return ai.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}, nil
}

func (p *OpenAIProvider) buildChatParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Role)) {
	case ai.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case ai.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case ai.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

// Ensure interface compliance
var _ ai.Provider = (*OpenAIProvider)(nil)
