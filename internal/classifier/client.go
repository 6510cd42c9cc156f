// Package classifier provides the client for the external narrative
// classification endpoint. The endpoint turns a transcript chunk plus recent
// session context into a tentative attribute tuple; it may fail or return
// low-quality answers for single short utterances, so callers treat failures
// as "no new tuple this cycle" rather than errors worth crashing over.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adweery/soundstory-app-nnkocz/internal/narrative"
)

// Static errors for classifier client operations.
var (
	// ErrEndpointRequired is returned when the endpoint URL is not provided.
	ErrEndpointRequired = errors.New("classifier: endpoint URL is required")
	// ErrAPIKeyNotSet is returned when no API key is configured.
	ErrAPIKeyNotSet = errors.New("classifier: CLASSIFIER_API_KEY environment variable is not set")
	// ErrTranscriptRequired is returned when the transcript is empty.
	ErrTranscriptRequired = errors.New("classifier: transcript is required")
	// ErrUnavailable is returned when the classification endpoint cannot
	// produce a tuple (network failure, server error, exhausted retries).
	ErrUnavailable = errors.New("classifier: classification unavailable")
	// ErrInvalidResponse is returned when the endpoint answers with a tuple
	// outside the closed enumerations.
	ErrInvalidResponse = errors.New("classifier: invalid response tuple")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("classifier: rate limited")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("classifier: server error")
)

// ContextWindow is the maximum number of recent tuples sent as session
// context with each classification request.
const ContextWindow = 5

// Classifier defines the interface for narrative attribute classification.
type Classifier interface {
	// Classify turns a transcript chunk into a tentative attribute tuple.
	// recent is the session's accepted history, oldest to newest.
	Classify(ctx context.Context, transcript string, recent []narrative.Tuple) (narrative.Tuple, error)
}

// HTTPClient is the HTTP implementation of the Classifier interface.
type HTTPClient struct {
	apiKey      string
	endpoint    string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	validate    *validator.Validate
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.baseBackoff = d
	}
}

// NewClient creates a new classifier HTTP client for the given endpoint URL.
// The API key can be set via WithAPIKey; if not provided, it is read from
// the CLASSIFIER_API_KEY environment variable.
func NewClient(endpoint string, opts ...ClientOption) (*HTTPClient, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	c := &HTTPClient{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		maxRetries:  2,
		baseBackoff: 500 * time.Millisecond,
		validate:    validator.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("CLASSIFIER_API_KEY")
	}
	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// classifyRequest is the wire format sent to the classification endpoint.
type classifyRequest struct {
	Transcript     string            `json:"transcript"`
	SessionContext []narrative.Tuple `json:"session_context,omitempty"`
}

// classifyResponse is the wire format returned by the endpoint.
type classifyResponse struct {
	Mood      string  `json:"mood" validate:"required"`
	Setting   string  `json:"setting" validate:"required"`
	Intensity float64 `json:"intensity"`
	Event     string  `json:"narrative_event" validate:"required"`
}

// Classify implements Classifier. Transport and server failures map to
// ErrUnavailable after retries; a response outside the closed enumerations
// maps to ErrInvalidResponse. Out-of-range intensity is clamped rather than
// rejected.
func (c *HTTPClient) Classify(ctx context.Context, transcript string, recent []narrative.Tuple) (narrative.Tuple, error) {
	if transcript == "" {
		return narrative.Tuple{}, ErrTranscriptRequired
	}

	if len(recent) > ContextWindow {
		recent = recent[len(recent)-ContextWindow:]
	}

	body, err := json.Marshal(classifyRequest{
		Transcript:     transcript,
		SessionContext: recent,
	})
	if err != nil {
		return narrative.Tuple{}, fmt.Errorf("classifier: marshal request: %w", err)
	}

	var resp classifyResponse
	if err := c.doRequestWithRetry(ctx, body, &resp); err != nil {
		return narrative.Tuple{}, err
	}

	if err := c.validate.Struct(resp); err != nil {
		return narrative.Tuple{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	tuple := narrative.Tuple{
		Mood:      narrative.Mood(resp.Mood),
		Setting:   narrative.Setting(resp.Setting),
		Intensity: narrative.ClampIntensity(resp.Intensity),
		Event:     narrative.Event(resp.Event),
	}
	if !tuple.Mood.IsValid() || !tuple.Setting.IsValid() || !tuple.Event.IsValid() {
		return narrative.Tuple{}, fmt.Errorf("%w: mood=%q setting=%q event=%q",
			ErrInvalidResponse, resp.Mood, resp.Setting, resp.Event)
	}

	return tuple, nil
}

// doRequestWithRetry performs the request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, body []byte, result any) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: context cancelled: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, body, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: max retries exceeded: %v", ErrUnavailable, lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("classifier: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("%w: request failed: %v", ErrUnavailable, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("%w: read response: %v", ErrUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", ErrInvalidResponse, err)
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
