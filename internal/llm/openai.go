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
	openAIChatURL = "https://api.openai.com/v1/chat/completions"
	openAIModel   = "gpt-4o-mini"
)

type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// chat types for OpenAI API
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, temp float32) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       openAIModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) GenerateCurriculum(ctx context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	result, err := c.complete(ctx, buildCurriculumPrompt(req), 0.4)
	if err != nil {
		return nil, fmt.Errorf("generate curriculum: %w", err)
	}
	return parseCurriculum(result)
}

func (c *OpenAIClient) AttemptStone(ctx context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	result, err := c.complete(ctx, buildStonePrompt(req), 0.3)
	if err != nil {
		return nil, fmt.Errorf("attempt stone: %w", err)
	}
	return parseStoneResult(result)
}

func (c *OpenAIClient) AttemptTarget(ctx context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	result, err := c.complete(ctx, buildTargetPrompt(req), 0.3)
	if err != nil {
		return nil, fmt.Errorf("attempt target: %w", err)
	}
	return parseTargetResult(result)
}

func (c *OpenAIClient) VerifyContradiction(ctx context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	result, err := c.complete(ctx, fmt.Sprintf(verifyContradictionPrompt, claimA, claimB), 0)
	if err != nil {
		return nil, fmt.Errorf("verify contradiction: %w", err)
	}
	return parseVerdict(result)
}
