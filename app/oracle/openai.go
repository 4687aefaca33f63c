package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultURL   = "https://api.openai.com/v1/completions"
	DefaultModel = "gpt-3.5-turbo-instruct"
)

// OpenAIClient is a Completer backed by the OpenAI completions endpoint.
type OpenAIClient struct {
	URL         string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTP        *http.Client
}

func NewOpenAIClient(url, model string, maxTokens int, temperature float64) *OpenAIClient {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens < 1 {
		maxTokens = 64
	}
	return &OpenAIClient{
		URL:         url,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, creds Credentials, prompt string) (string, error) {
	if strings.TrimSpace(creds.APIKey) == "" {
		return "", fmt.Errorf("%w: missing api key", ErrAuth)
	}

	payload, err := json.Marshal(completionRequest{
		Model:       c.Model,
		Prompt:      prompt,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// capture the api message (truncated) for error clarity
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		var msg apiError
		text := truncate(strings.TrimSpace(string(body)), 200)
		if json.Unmarshal(body, &msg) == nil && msg.Error.Message != "" {
			text = msg.Error.Message
		}
		return "", httpError{Status: res.StatusCode, Body: text}
	}

	var out completionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", ErrParse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", ErrParse)
	}
	return strings.TrimSpace(out.Choices[0].Text), nil
}
