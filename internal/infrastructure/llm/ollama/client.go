package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avoelk/paperroute/internal/core/domain"
	"github.com/avoelk/paperroute/internal/infrastructure/resilience"
)

// Client speaks the /api/generate endpoint with two models: a cheap
// gate model run on every document and an expensive extract model
// rationed to gate-approved candidates.
type Client struct {
	baseURL      string
	gateModel    string
	extractModel string
	topics       []domain.Topic
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(baseURL, gateModel, extractModel string, topics []domain.Topic, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		gateModel:    gateModel,
		extractModel: extractModel,
		topics:       topics,
		httpClient:   &http.Client{Timeout: 600 * time.Second},
		executor:     executor,
	}
}

// Gate runs the cheap first-pass judgment.
func (c *Client) Gate(ctx context.Context, text string) (domain.ClassificationResult, error) {
	raw, err := c.generate(ctx, "gate", c.gateModel, buildGatePrompt(c.topics, text))
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	return parseClassification(raw)
}

// Extract runs the expensive second pass with the full schema.
func (c *Client) Extract(ctx context.Context, text string) (domain.ClassificationResult, error) {
	raw, err := c.generate(ctx, "extract", c.extractModel, buildExtractPrompt(c.topics, text))
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	return parseClassification(raw)
}

func (c *Client) generate(ctx context.Context, operation, model, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.1,
		},
	}

	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama_"+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}
