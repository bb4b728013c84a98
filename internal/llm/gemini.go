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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{{Text: prompt}},
				Role:  "user",
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", geminiBaseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal gemini response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini API returned no content")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

func (c *GeminiClient) GenerateCurriculum(ctx context.Context, req domain.CurriculumRequest) (*domain.CurriculumDraft, error) {
	result, err := c.complete(ctx, buildCurriculumPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate curriculum: %w", err)
	}
	return parseCurriculum(result)
}

func (c *GeminiClient) AttemptStone(ctx context.Context, req domain.StoneRequest) (*domain.StoneResult, error) {
	result, err := c.complete(ctx, buildStonePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("attempt stone: %w", err)
	}
	return parseStoneResult(result)
}

func (c *GeminiClient) AttemptTarget(ctx context.Context, req domain.TargetRequest) (*domain.TargetResult, error) {
	result, err := c.complete(ctx, buildTargetPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("attempt target: %w", err)
	}
	return parseTargetResult(result)
}

func (c *GeminiClient) VerifyContradiction(ctx context.Context, claimA, claimB string) (*domain.ContradictionVerdict, error) {
	result, err := c.complete(ctx, fmt.Sprintf(verifyContradictionPrompt, claimA, claimB))
	if err != nil {
		return nil, fmt.Errorf("verify contradiction: %w", err)
	}
	return parseVerdict(result)
}
