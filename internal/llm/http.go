package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

const (
	defaultHTTPModel = "claude-3-5-haiku-20241022"
	httpMaxRetries   = 3
	httpInitBackoff  = 1 * time.Second
)

// HTTPExecutor calls the Anthropic API directly, grounded on the
// teacher's HaikuClient call-with-retry shape.
type HTTPExecutor struct {
	client         anthropic.Client
	maxRetries     int
	initialBackoff time.Duration
}

// NewHTTPExecutor builds an HTTPExecutor. ANTHROPIC_API_KEY takes
// precedence over an explicit apiKey, falling back to ANTHROPIC_AUTH_TOKEN
// when the key isn't set (spec.md §6.5, grounded on call_http()'s
// `.or_else(|_| std::env::var("ANTHROPIC_AUTH_TOKEN"))`). ANTHROPIC_BASE_URL
// overrides the SDK's default endpoint when set, also per call_http().
func NewHTTPExecutor(apiKey string) (*HTTPExecutor, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	} else if authToken := os.Getenv("ANTHROPIC_AUTH_TOKEN"); authToken != "" {
		apiKey = authToken
	}
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &HTTPExecutor{
		client:         anthropic.NewClient(opts...),
		maxRetries:     httpMaxRetries,
		initialBackoff: httpInitBackoff,
	}, nil
}

func (h *HTTPExecutor) Name() string { return "http" }

func (h *HTTPExecutor) Execute(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = defaultHTTPModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}

	// requestID tags every attempt of this call with the same value so
	// retries are correlatable in Anthropic-side logs and in our own
	// error messages (spec.md §7 "Failure and retry model" asks for
	// request-level correlation on retried LLM calls).
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := h.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		message, err := h.client.Messages.New(ctx, params, option.WithHeaderAdd("X-Remem-Request-Id", requestID))
		if err == nil {
			if len(message.Content) == 0 {
				return nil, fmt.Errorf("llm: http response had no content blocks (request %s)", requestID)
			}
			block := message.Content[0]
			if block.Type != "text" {
				return nil, fmt.Errorf("llm: http response block type %q was not text (request %s)", block.Type, requestID)
			}
			return &Response{
				Text:         block.Text,
				InputTokens:  message.Usage.InputTokens,
				OutputTokens: message.Usage.OutputTokens,
				Model:        model,
				Executor:     "http",
			}, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryableHTTPErr(err) {
			return nil, fmt.Errorf("llm: non-retryable http error (request %s): %w", requestID, err)
		}
	}

	return nil, fmt.Errorf("llm: http failed after %d retries (request %s): %w", h.maxRetries+1, requestID, lastErr)
}

func isRetryableHTTPErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
