// Package client holds the client side of a chat turn: the transport that
// sends one message to the server and the optimistic message list that a
// front end renders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatPath is the server route for one turn.
const ChatPath = "/api/chat"

// Sender sends one message and returns the reply. APIClient implements it.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat request failed with status %d: %s", e.StatusCode, e.Message)
}

// ErrInvalidResponse is returned when a 2xx body is not the expected JSON.
var ErrInvalidResponse = errors.New("invalid chat response")

// APIClient posts single messages to the chat server. It carries no state
// between calls and never retries.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for the server at baseURL. A nil httpClient
// gets a default client with a 60 second timeout.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply *string `json:"reply"`
	Error string  `json:"error"`
}

// Send issues one POST carrying only {"message": text} and returns the reply.
func (c *APIClient) Send(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chatRequest{Message: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			statusErr.Message = decoded.Error
		}
		return "", statusErr
	}

	if decodeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponse, decodeErr)
	}
	if decoded.Reply == nil {
		return "", fmt.Errorf("%w: missing reply field", ErrInvalidResponse)
	}
	return *decoded.Reply, nil
}
