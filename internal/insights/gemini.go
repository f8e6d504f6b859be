package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "taskmate/pkg/logx"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel     = "gemini-2.0-flash"
	defaultTimeout   = 30 * time.Second
	defaultRetryMax  = 3
	defaultRetryBase = time.Second
	defaultBurst     = 2
	maxRetryDelay    = 30 * time.Second
	maxResponseBody  = 4 << 20
)

// ErrNoAPIKey is returned by NewGemini without a key.
var ErrNoAPIKey = errors.New("gemini api key not set")

// GeminiConfig configures GeminiModel. Zero values take the defaults above;
// RatePerSec <= 0 means 1 request per second. A negative RetryMax disables
// retries.
type GeminiConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	RetryMax   int
	RetryBase  time.Duration
	HTTPClient *http.Client
}

// GeminiModel calls the Generative Language API generateContent endpoint
// with a JSON response schema.
type GeminiModel struct {
	endpoint  string
	model     string
	apiKey    string
	client    *http.Client
	limiter   *rate.Limiter
	retryMax  int
	retryBase time.Duration
	log       logx.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting        `json:"safetySettings,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini api error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini api error (%d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func NewGemini(cfg GeminiConfig, log logx.Logger) (*GeminiModel, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	model = strings.TrimPrefix(model, "models/")

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	} else if retryMax == 0 {
		retryMax = defaultRetryMax
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}

	return &GeminiModel{
		endpoint:  base + "/models/" + url.PathEscape(model) + ":generateContent",
		model:     model,
		apiKey:    key,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		retryMax:  retryMax,
		retryBase: retryBase,
		log:       log.With(logx.String("comp", "gemini")),
	}, nil
}

func (g *GeminiModel) Name() string { return g.model }

// Generate sends one generateContent call, retrying 429 and 5xx answers and
// transport errors with exponential backoff (base, 2*base, 4*base...) capped
// at maxRetryDelay.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
		SafetySettings: req.Safety,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.retryMax; attempt++ {
		if attempt > 0 {
			delay := g.backoff(attempt)
			g.log.Debug("retrying model request", logx.String("flow", req.Flow), logx.Int("attempt", attempt), logx.Duration("delay", delay), logx.Err(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := g.do(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var apiErr *APIError
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.As(err, &apiErr) && !apiErr.Retryable():
			return "", err
		case errors.Is(err, ErrBlocked), errors.Is(err, ErrEmptyOutput):
			return "", err
		}
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", g.retryMax, lastErr)
}

// backoff is the wait before retry attempt n (n >= 1).
func (g *GeminiModel) backoff(n int) time.Duration {
	d := g.retryBase
	for i := 1; i < n; i++ {
		if d >= maxRetryDelay/2 {
			return maxRetryDelay
		}
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func (g *GeminiModel) do(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var ge geminiError
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			apiErr.Message = ge.Error.Message
			apiErr.Status = ge.Error.Status
		}
		return "", apiErr
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt: %s", ErrBlocked, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", ErrEmptyOutput
	}
	c := gr.Candidates[0]
	if c.FinishReason == "SAFETY" {
		return "", fmt.Errorf("%w: candidate: %s", ErrBlocked, c.FinishReason)
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
