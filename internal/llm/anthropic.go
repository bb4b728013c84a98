package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/soarlabs/soar/internal/domain"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicModel       = "claude-3-5-haiku-20241022"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 1024
)

type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: anthropicMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal anthropic response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", result.Error.Message)
	}

	for _, block := range result.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("anthropic API returned no text content")
}

func (c *AnthropicClient) GenerateCurriculum(ctx context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	result, err := c.complete(ctx, buildCurriculumPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate curriculum: %w", err)
	}
	return parseCurriculum(result)
}

func (c *AnthropicClient) AttemptStone(ctx context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	result, err := c.complete(ctx, buildStonePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("attempt stone: %w", err)
	}
	return parseStoneResult(result)
}

func (c *AnthropicClient) AttemptTarget(ctx context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	result, err := c.complete(ctx, buildTargetPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("attempt target: %w", err)
	}
	return parseTargetResult(result)
}

func (c *AnthropicClient) VerifyContradiction(ctx context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	result, err := c.complete(ctx, fmt.Sprintf(verifyContradictionPrompt, claimA, claimB))
	if err != nil {
		return nil, fmt.Errorf("verify contradiction: %w", err)
	}
	return parseVerdict(result)
}
