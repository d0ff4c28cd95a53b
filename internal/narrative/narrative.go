// Package narrative turns a Report into a short prose summary, using the
// Anthropic API when configured and a deterministic template otherwise.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-optimizer/internal/export"
	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/resilience"
	"github.com/sells-group/credit-optimizer/pkg/anthropic"
)

const systemPrompt = `You write short, plain-English summaries of consumer credit reports.
You receive a JSON report produced by a credit calculator: metrics, an
estimated score, an optional allocation plan, ranked recommendations and an
optional verdict. Summarize it in at most four sentences. Quote dollar amounts
and percentages exactly as given. Never invent numbers and never promise a
score outcome.`

// Options configures the LLM path.
type Options struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	Retry     resilience.RetryConfig
}

// Summarizer produces report summaries. The zero value is not usable; use New.
type Summarizer struct {
	client  anthropic.Client
	opts    Options
	breaker *resilience.Breaker
}

// New returns a Summarizer. A nil client always uses the fallback template.
func New(client anthropic.Client, opts Options) *Summarizer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = retryable
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("anthropic", "summarize")
	}
	return &Summarizer{
		client:  client,
		opts:    opts,
		breaker: resilience.NewBreaker(3, time.Minute),
	}
}

// Summarize returns LLM prose for r, falling back to Fallback(r) when the
// client is absent, the breaker is open, or the call fails.
func (s *Summarizer) Summarize(ctx context.Context, r model.Report) string {
	if s == nil || s.client == nil {
		return Fallback(r)
	}

	text, err := s.generate(ctx, r)
	if err != nil {
		zap.L().Warn("narrative: using fallback summary",
			zap.String("calculator", r.Calculator),
			zap.Error(err),
		)
		return Fallback(r)
	}
	return text
}

func (s *Summarizer) generate(ctx context.Context, r model.Report) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", eris.Wrap(err, "narrative: marshal report")
	}
	prompt := anthropic.Prompt{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		System:      systemPrompt,
		CacheSystem: true,
		User:        string(payload),
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := resilience.Execute(ctx, s.breaker, func(ctx context.Context) (*anthropic.Completion, error) {
		return resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) (*anthropic.Completion, error) {
			return s.client.Complete(ctx, prompt)
		})
	})
	if err != nil {
		return "", err
	}
	resp.Usage.Log(s.opts.Model, "narrative")

	text := resp.Text
	if text == "" {
		return "", eris.New("narrative: empty response")
	}
	return text, nil
}

func retryable(err error) bool {
	var se *anthropic.StatusError
	if errors.As(err, &se) {
		return resilience.IsTransientHTTPStatus(se.StatusCode)
	}
	return resilience.IsTransient(err)
}

// Fallback builds a summary from the report alone.
func Fallback(r model.Report) string {
	var parts []string

	m := r.Metrics
	parts = append(parts, fmt.Sprintf("Utilization is %s across %d accounts (%s of %s).",
		export.Percent(m.AggregateUtilization), len(m.Accounts),
		export.Money(m.TotalBalance), export.Money(m.TotalLimit)))

	if p := r.Plan; p != nil {
		parts = append(parts, fmt.Sprintf("Plan: report %s on %s, pay down %s in total, for %s utilization.",
			export.Money(p.TargetBalance), p.ReportingAccountID,
			export.Money(p.TotalPayDown), export.Percent(p.ResultingUtilization)))
	} else if pm := r.ProjectedMetrics; pm != nil && pm.AggregateUtilization != m.AggregateUtilization {
		parts = append(parts, fmt.Sprintf("The scenario brings utilization to %s.",
			export.Percent(pm.AggregateUtilization)))
	}

	switch {
	case r.EstimatedScore != nil && r.PotentialScore != nil:
		parts = append(parts, fmt.Sprintf("Estimated score %s, potential %s.",
			export.Points(*r.EstimatedScore), export.Points(*r.PotentialScore)))
	case r.EstimatedScore != nil:
		parts = append(parts, fmt.Sprintf("Estimated score %s.", export.Points(*r.EstimatedScore)))
	case r.HealthScore != nil:
		parts = append(parts, fmt.Sprintf("Health score %s out of 100.", export.Points(*r.HealthScore)))
	}

	if v := r.Verdict; v != nil {
		if v.Reason != "" {
			parts = append(parts, fmt.Sprintf("Verdict: %s (%s).", v.Label, v.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("Verdict: %s.", v.Label))
		}
	}

	if len(r.Recommendations) > 0 {
		parts = append(parts, "Top recommendation: "+r.Recommendations[0].Text)
	}
	return strings.Join(parts, " ")
}
