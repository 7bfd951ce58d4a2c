// Package translate wraps an OpenAI-compatible chat-completion endpoint for
// document translation: a streaming single-text client, a batch driver with
// positional result ordering, and model discovery.
package translate

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

// DefaultRequestTimeout bounds a single chat-completion exchange.
const DefaultRequestTimeout = 120 * time.Second

// Translator translates one text unit. onDelta, when non-nil, receives the
// accumulated translation after each streamed fragment.
type Translator interface {
	Translate(ctx context.Context, text string, onDelta func(partial string)) (string, error)
}

// ClientConfig carries the endpoint settings for a translation client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TargetLanguage string
	Timeout        time.Duration
}

// Client is the streaming chat-completion translator.
type Client struct {
	chatModel    model.BaseChatModel
	systemPrompt string
}

// NewClient builds a Client backed by an OpenAI-compatible chat model.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Model == "" {
		return nil, types.NewAppError(types.ErrConfig, "no model configured", nil)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	modelConfig := &einoopenai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Timeout: timeout,
	}
	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	chatModel, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrTranslateRequest, "failed to create chat model", err)
	}

	return &Client{
		chatModel:    chatModel,
		systemPrompt: SystemPrompt(cfg.TargetLanguage),
	}, nil
}

// newClientWithModel wires an already-built chat model; tests use it to
// substitute a stub for the remote endpoint.
func newClientWithModel(chatModel model.BaseChatModel, targetLanguage string) *Client {
	return &Client{
		chatModel:    chatModel,
		systemPrompt: SystemPrompt(targetLanguage),
	}
}

// Translate sends one text unit through the model and accumulates the
// streamed response. Blank input is returned unchanged without contacting
// the endpoint. No retries happen here; the batch layer owns fallback.
func (c *Client) Translate(ctx context.Context, text string, onDelta func(partial string)) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(c.systemPrompt),
		schema.UserMessage(text),
	}

	stream, err := c.chatModel.Stream(ctx, messages)
	if err != nil {
		return "", types.NewAppError(types.ErrTranslateRequest, "translation request failed", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", types.NewAppError(types.ErrTranslateRequest, "translation stream failed", err)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		sb.WriteString(chunk.Content)
		if onDelta != nil {
			onDelta(sb.String())
		}
	}

	result := sb.String()
	logger.Debug("text unit translated",
		logger.Int("input_chars", len(text)),
		logger.Int("output_chars", len(result)))
	return result, nil
}
