// Package narrative asks a hosted text model to explain an analysis. Output is validated
// strictly; callers fall back to a deterministic narrative on any error.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rentcomps/internal/adapters/observability"
	"rentcomps/internal/domain"
)

const systemPrompt = `You are a residential rental pricing analyst. You receive a JSON document with a subject unit,
comparable-market statistics, a hedonic price estimate, vacancy risk and an elasticity curve.
Reply with one JSON object and nothing else:
{"summary": string, "recommendation": string, "recommended_rent": number,
 "scenarios": [{"label": string, "rent": number, "rationale": string}]}
Use the numbers you were given. Do not invent comps.`

type Config struct {
	BaseURL          string
	APIKey           string
	Model            string
	MaxTokens        int
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type Client struct {
	cfg Config
	hc  *http.Client
	cb  *circuitBreaker
}

// UpstreamError is a non-2xx answer from the messages endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("messages api: %d: %s", e.Status, e.Body)
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = time.Minute
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		cb:  newCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type wireNarrative struct {
	Summary         string            `json:"summary"`
	Recommendation  string            `json:"recommendation"`
	RecommendedRent float64           `json:"recommended_rent"`
	Scenarios       []domain.Scenario `json:"scenarios"`
}

func (c *Client) Narrate(ctx context.Context, in domain.NarrativeInput) (domain.Narrative, error) {
	if !c.cb.allow() {
		return domain.Narrative{}, domain.ErrCircuitOpen
	}

	doc, err := json.Marshal(in)
	if err != nil {
		return domain.Narrative{}, err
	}
	payload, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: string(doc)}},
	})
	if err != nil {
		return domain.Narrative{}, err
	}

	text, err := c.call(ctx, payload)
	if err != nil {
		c.cb.fail()
		return domain.Narrative{}, err
	}
	c.cb.success()
	return Parse(text)
}

// call posts with up to three attempts. Client errors other than 429 are not retried.
func (c *Client) call(ctx context.Context, payload []byte) (string, error) {
	url := c.cfg.BaseURL + "/v1/messages"
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		start := time.Now()
		res, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("narrative", "messages", 0, time.Since(start))
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		observability.ObserveExternal("narrative", "messages", res.StatusCode, time.Since(start))

		body, rerr := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		res.Body.Close()
		if res.StatusCode >= 300 {
			lastErr = &UpstreamError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
			if res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
				return "", lastErr
			}
			continue
		}
		if rerr != nil {
			lastErr = rerr
			continue
		}

		var out messagesResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("%w: response envelope: %v", domain.ErrNarrativeMalformed, err)
		}
		var sb strings.Builder
		for _, b := range out.Content {
			if b.Type == "text" {
				sb.WriteString(b.Text)
			}
		}
		return sb.String(), nil
	}
	return "", lastErr
}

// Parse pulls the first JSON object out of model text and checks every required field.
func Parse(text string) (domain.Narrative, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Narrative{}, fmt.Errorf("%w: no JSON object in output", domain.ErrNarrativeMalformed)
	}
	var w wireNarrative
	if err := json.Unmarshal([]byte(text[start:end+1]), &w); err != nil {
		return domain.Narrative{}, fmt.Errorf("%w: %v", domain.ErrNarrativeMalformed, err)
	}
	n := domain.Narrative{
		Summary:         strings.TrimSpace(w.Summary),
		Recommendation:  strings.TrimSpace(w.Recommendation),
		RecommendedRent: w.RecommendedRent,
		Scenarios:       w.Scenarios,
		Source:          domain.NarrativeLLM,
	}
	if err := n.Validate(); err != nil {
		return domain.Narrative{}, err
	}
	return n, nil
}
