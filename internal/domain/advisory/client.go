package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	// DefaultTimeout bounds the outbound call. The reviewed system had no
	// timeout at all; expiry here is treated identically to a transport
	// failure.
	DefaultTimeout = 10 * time.Second
)

// Client calls the generative-text backend. A zero-credential client is a
// valid, permanently degraded gateway.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithModel overrides the default model.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithTimeout overrides the default call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates an advisory client. An empty apiKey selects the
// first-class degraded mode; it is not an error.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Wire types for the generateContent call.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// analysisPayload is the JSON document the model is asked to return.
type analysisPayload struct {
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

func buildPrompt(req Request) string {
	return fmt.Sprintf(`Act as a medical assistant for a Drive-Through OPD in Ghana.
Patient: %d year old %s.
Symptoms: %s.
Vitals: %s.

1. Provide a brief clinical analysis and recommendation (under 100 words).
2. Provide a list of 4 likely ICD-10 diagnoses formatted as "Code - Name" (e.g., "A09 - Infectious gastroenteritis").

Return the response as JSON with fields "analysis" (string) and "suggestions" (array of strings).`,
		req.Age, req.Gender, req.Symptoms, vitalsSummary(req.Vitals))
}

// Analyze performs one advisory call. It never returns a transport or
// parse error to the caller: a missing credential yields the unavailable
// placeholder and any failure (including timeout and cancellation) yields
// the failure placeholder. No retries.
func (c *Client) Analyze(ctx context.Context, req Request) Result {
	if !c.Enabled() {
		return unavailableResult()
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: buildPrompt(req)}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("advisory: marshal request")
		return failedResult()
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error().Err(err).Msg("advisory: build request")
		return failedResult()
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Msg("advisory: call failed")
		return failedResult()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("advisory: non-200 response")
		return failedResult()
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.Warn().Err(err).Msg("advisory: read response")
		return failedResult()
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Warn().Err(err).Msg("advisory: parse envelope")
		return failedResult()
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn().Msg("advisory: empty candidate list")
		return failedResult()
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(gr.Candidates[0].Content.Parts[0].Text), &payload); err != nil {
		c.logger.Warn().Err(err).Msg("advisory: parse analysis payload")
		return failedResult()
	}
	if payload.Analysis == "" {
		return failedResult()
	}

	if payload.Suggestions == nil {
		payload.Suggestions = []string{}
	}
	return Result{
		Status:      StatusSuccess,
		Analysis:    payload.Analysis,
		Suggestions: payload.Suggestions,
	}
}
