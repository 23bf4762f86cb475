package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyInput is returned when the text to complete is empty.
	ErrEmptyInput = errors.New("completion input is empty")
	// ErrEmptyReply is returned when the provider answered without content.
	ErrEmptyReply = errors.New("completion provider returned an empty reply")
)

// Provider turns one input string into one reply string. Implementations use
// a fixed model and never send conversation history.
type Provider interface {
	Complete(ctx context.Context, text string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text string) (string, error)

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func checkInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}
