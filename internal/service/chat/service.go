package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
	"github.com/zhouzirui/quickchat/backend/internal/service/ai"
	"github.com/zhouzirui/quickchat/backend/internal/store"
)

// Step names one stage of the exchange pipeline.
type Step string

const (
	StepPersistUser  Step = "persist_user"
	StepComplete     Step = "complete"
	StepPersistReply Step = "persist_reply"
)

// StepError reports which pipeline step failed. Callers outside the service
// usually collapse it into one generic error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep extracts the failing step from err, if any.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}

// Service sequences one turn: persist the user message, complete it, persist
// the reply. No transaction spans the steps and nothing is rolled back; a
// completion failure leaves the user record in place.
type Service struct {
	store    store.Store
	provider ai.Provider
	logger   *zap.Logger
}

// NewService wires the orchestrator to its store and completion provider.
func NewService(st store.Store, provider ai.Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		provider: provider,
		logger:   logger,
	}
}

// Exchange runs the pipeline for message and returns the generated reply.
// Once started it is not canceled by the caller going away; only deadlines
// set by the store and provider bound it.
func (s *Service) Exchange(ctx context.Context, message string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	if _, err := s.store.Append(ctx, chat.NewUserMessage(message)); err != nil {
		return "", &StepError{Step: StepPersistUser, Err: err}
	}

	reply, err := s.provider.Complete(ctx, message)
	if err != nil {
		// The user record from the first step stays persisted.
		return "", &StepError{Step: StepComplete, Err: err}
	}

	if _, err := s.store.Append(ctx, chat.NewBotMessage(reply)); err != nil {
		return "", &StepError{Step: StepPersistReply, Err: err}
	}

	s.logger.Debug("exchange completed",
		zap.Int("message_len", len(message)),
		zap.Int("reply_len", len(reply)),
		zap.Duration("elapsed", time.Since(started)))
	return reply, nil
}
