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
	cerebrasAPIURL = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel  = "llama-3.3-70b"
)

type CerebrasClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewCerebrasClient(apiKey string) *CerebrasClient {
	return &CerebrasClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Cerebras uses OpenAI-compatible request/response format
type cerebrasMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cerebrasRequest struct {
	Model       string            `json:"model"`
	Messages    []cerebrasMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
}

type cerebrasResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *CerebrasClient) complete(ctx context.Context, prompt string, temp float32) (string, error) {
	body, err := json.Marshal(cerebrasRequest{
		Model:       cerebrasModel,
		Messages:    []cerebrasMessage{{Role: "user", Content: prompt}},
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal cerebras request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cerebrasAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create cerebras request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cerebras request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read cerebras response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cerebras API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result cerebrasResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal cerebras response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("cerebras API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("cerebras API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (c *CerebrasClient) GenerateCurriculum(ctx context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	result, err := c.complete(ctx, buildCurriculumPrompt(req), 0.4)
	if err != nil {
		return nil, fmt.Errorf("generate curriculum: %w", err)
	}
	return parseCurriculum(result)
}

func (c *CerebrasClient) AttemptStone(ctx context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	result, err := c.complete(ctx, buildStonePrompt(req), 0.3)
	if err != nil {
		return nil, fmt.Errorf("attempt stone: %w", err)
	}
	return parseStoneResult(result)
}

func (c *CerebrasClient) AttemptTarget(ctx context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	result, err := c.complete(ctx, buildTargetPrompt(req), 0.3)
	if err != nil {
		return nil, fmt.Errorf("attempt target: %w", err)
	}
	return parseTargetResult(result)
}

func (c *CerebrasClient) VerifyContradiction(ctx context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	result, err := c.complete(ctx, fmt.Sprintf(verifyContradictionPrompt, claimA, claimB), 0)
	if err != nil {
		return nil, fmt.Errorf("verify contradiction: %w", err)
	}
	return parseVerdict(result)
}
