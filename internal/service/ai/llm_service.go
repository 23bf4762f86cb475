package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Service completes single messages through an eino chain: a one-message
// user template feeding the configured chat model. No system prompt and no
// history are attached.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService compiles the completion chain around chatModel. A non-positive
// timeout leaves calls bounded only by the caller's context.
func NewService(ctx context.Context, chatModel model.ChatModel, timeout time.Duration, logger *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Complete runs the chain once for text. It does not retry.
func (s *Service) Complete(ctx context.Context, text string) (string, error) {
	if err := checkInput(text); err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	response, err := s.chain.Invoke(ctx, map[string]any{"query": text})
	if err != nil {
		return "", fmt.Errorf("failed to run completion chain: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", ErrEmptyReply
	}

	s.logger.Debug("completion generated",
		zap.Int("input_len", len(text)),
		zap.Int("reply_len", len(response.Content)),
		zap.Duration("elapsed", time.Since(started)))
	return response.Content, nil
}
