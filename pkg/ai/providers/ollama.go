package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"retrochat/pkg/ai"
	"retrochat/pkg/config"
)

// maxErrorBody caps how much of a failed response is kept for the diagnostic.
const maxErrorBody = 4096

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOllama,
		Name:        "Ollama",
		Description: "Native Ollama chat API",
		EndpointURL: config.Config.ChatURL,
	}, NewOllamaProvider)
}

// OllamaProvider talks to the native Ollama /api/chat endpoint with
// streaming disabled.
type OllamaProvider struct {
	httpClient   *http.Client
	chatURL      string
	defaultModel string
}

type ollamaChatRequest struct {
	Model    string       `json:"model"`
	Messages []ai.Message `json:"messages"`
	Stream   bool         `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string         `json:"model"`
	Message *ollamaMessage `json:"message"`
}

// ollamaMessage keeps Content as a pointer so a missing key is told apart
// from an empty reply.
type ollamaMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// NewOllamaProvider creates an Ollama provider from config.
func NewOllamaProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOllamaProviderWithHTTPClient(cfg.Config, newHTTPClient(cfg.Config.APITimeoutSeconds))
}

func newOllamaProviderWithHTTPClient(cfg config.Config, httpClient *http.Client) (*OllamaProvider, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, fmt.Errorf("ollama server is required")
	}
	if cfg.ServerPort <= 0 {
		return nil, fmt.Errorf("ollama server_port must be positive")
	}
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.APITimeoutSeconds)
	}

	return &OllamaProvider{
		httpClient:   httpClient,
		chatURL:      cfg.ChatURL(),
		defaultModel: cfg.Model,
	}, nil
}

// CreateChatCompletion sends the whole conversation and waits for the reply.
func (p *OllamaProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return ai.ChatResponse{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return ai.ChatResponse{}, fmt.Errorf("messages are required")
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
	})
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL, bytes.NewReader(payload))
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("ollama_chat_request", "url", p.chatURL, "model", model, "messages", len(req.Messages))

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return ai.ChatResponse{}, &ai.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return ai.ChatResponse{}, &ai.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return ai.ChatResponse{}, &ai.DecodeError{Err: err}
	}
	if chatResp.Message == nil {
		return ai.ChatResponse{}, &ai.DecodeError{Err: errors.New("missing message field")}
	}
	if chatResp.Message.Content == nil {
		return ai.ChatResponse{}, &ai.DecodeError{Err: errors.New("missing message.content")}
	}

	return ai.ChatResponse{
		Content: *chatResp.Message.Content,
		Model:   chatResp.Model,
	}, nil
}

// newHTTPClient returns a client with the given timeout; zero means no
// timeout, so a hung server blocks until the caller's context ends.
func newHTTPClient(timeoutSeconds int) *http.Client {
	return &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// Ensure interface compliance
var _ ai.Provider = (*OllamaProvider)(nil)
