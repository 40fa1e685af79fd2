// Package imagegen turns battle prompts into PNG images through the OpenAI
// Responses API. The generation runner only depends on the Generator
// interface so tests can swap in a canned implementation.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prompt-battle/internal/config"
)

var ErrNoImage = errors.New("no image in model output")

type Generator interface {
	// Generate renders prompt and returns the raw PNG bytes.
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	size    string
	quality string
	inner   *http.Client
}

func NewOpenAI(cfg config.GenConfig) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.Model,
		size:    cfg.ImageSize,
		quality: cfg.ImageQuality,
		inner:   &http.Client{Timeout: timeout},
	}
}

type imageTool struct {
	Type    string `json:"type"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type responsesRequest struct {
	Model      string      `json:"model"`
	Input      string      `json:"input"`
	Tools      []imageTool `json:"tools"`
	ToolChoice toolChoice  `json:"tool_choice"`
}

type responsesReply struct {
	Output []outputItem `json:"output"`
	Error  *apiError    `json:"error"`
}

type outputItem struct {
	Type   string `json:"type"`
	Result string `json:"result"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body := responsesRequest{
		Model:      c.model,
		Input:      prompt,
		Tools:      []imageTool{{Type: "image_generation", Size: c.size, Quality: c.quality}},
		ToolChoice: toolChoice{Type: "image_generation"},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image generation failed with status %d: %s", resp.StatusCode, truncate(respRaw, 300))
	}
	var reply responsesReply
	if err := json.Unmarshal(respRaw, &reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("image generation: %s", reply.Error.Message)
	}
	for _, out := range reply.Output {
		if out.Type != "image_generation_call" || out.Result == "" {
			continue
		}
		png, err := base64.StdEncoding.DecodeString(out.Result)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return png, nil
	}
	return nil, ErrNoImage
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
