package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaProvider struct {
	client *http.Client
	apiURL string
	model  string
}

func NewOllamaProvider(cfg Config) *OllamaProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		client: &http.Client{Timeout: 120 * time.Second},
		apiURL: apiURL,
		model:  cfg.Model,
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if p.model == "" {
		return "", errors.New("ollama model is required")
	}
	reqBody := ollamaRequest{
		Model: p.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: KindOther, Provider: "ollama", Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindOther, Provider: "ollama", Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", transportError("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", statusError("ollama", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payloadResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payloadResp); err != nil {
		return "", &Error{Kind: KindOther, Provider: "ollama", Message: "decode response", Err: err}
	}
	return payloadResp.Message.Content, nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}
