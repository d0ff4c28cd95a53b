// Package anthropic wraps anthropic-sdk-go behind a single-turn completion
// call: one system prompt, one user message, text back.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)
}

// Prompt is a single-turn request.
type Prompt struct {
	Model     string
	MaxTokens int64
	System    string
	// CacheSystem marks the system prompt for one-hour prompt caching.
	CacheSystem bool
	User        string
	Temperature *float64
}

// Completion is the text of a response plus its accounting.
type Completion struct {
	Text       string
	StopReason string
	Usage      Usage
}

// Usage counts tokens billed for one call.
type Usage struct {
	Input      int64
	Output     int64
	CacheWrite int64
	CacheRead  int64
}

// pricePerMTok is USD per million tokens: {input, output}.
var pricePerMTok = map[string][2]float64{
	"claude-haiku-4-5-20251001":  {1.00, 5.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// Cost returns the estimated USD cost of u under model. Unknown models cost 0.
// Cache writes bill at 2x input for the one-hour TTL, cache reads at 0.1x.
func (u Usage) Cost(model string) float64 {
	p, ok := pricePerMTok[model]
	if !ok {
		return 0
	}
	const m = 1e6
	return float64(u.Input)/m*p[0] +
		float64(u.Output)/m*p[1] +
		float64(u.CacheWrite)/m*p[0]*2 +
		float64(u.CacheRead)/m*p[0]*0.1
}

// Log records u at info level.
func (u Usage) Log(model, purpose string) {
	zap.L().Info("anthropic: usage",
		zap.String("model", model),
		zap.String("purpose", purpose),
		zap.Int64("input_tokens", u.Input),
		zap.Int64("output_tokens", u.Output),
		zap.Int64("cache_read_tokens", u.CacheRead),
		zap.Float64("cost_usd", u.Cost(model)),
	)
}

// StatusError is returned when the API answered with an error status.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

type sdkClient struct {
	messages sdk.MessageService
}

// NewClient returns a Client for apiKey. The SDK's own retries are off so
// callers own the retry policy.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	c := sdk.NewClient(append(base, opts...)...)
	return &sdkClient{messages: c.Messages}
}

func (c *sdkClient) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	msg, err := c.messages.New(ctx, buildParams(p))
	if err != nil {
		wrapped := eris.Wrapf(err, "anthropic: complete with %s", p.Model)
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{StatusCode: apiErr.StatusCode, Err: wrapped}
		}
		return nil, wrapped
	}
	return toCompletion(msg), nil
}

func buildParams(p Prompt) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.Model),
		MaxTokens: p.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(p.User))},
	}
	if p.System != "" {
		sys := sdk.TextBlockParam{Text: p.System}
		if p.CacheSystem {
			cc := sdk.NewCacheControlEphemeralParam()
			cc.TTL = sdk.CacheControlEphemeralTTL("1h")
			sys.CacheControl = cc
		}
		params.System = []sdk.TextBlockParam{sys}
	}
	if p.Temperature != nil {
		params.Temperature = sdk.Float(*p.Temperature)
	}
	return params
}

func toCompletion(msg *sdk.Message) *Completion {
	var texts []string
	for _, b := range msg.Content {
		if b.Type == "text" && b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	return &Completion{
		Text:       strings.TrimSpace(strings.Join(texts, "\n")),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			Input:      msg.Usage.InputTokens,
			Output:     msg.Usage.OutputTokens,
			CacheWrite: msg.Usage.CacheCreationInputTokens,
			CacheRead:  msg.Usage.CacheReadInputTokens,
		},
	}
}
