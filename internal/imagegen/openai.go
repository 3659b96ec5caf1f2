package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Size    string
	BaseURL string
	Timeout time.Duration
}

type OpenAI struct {
	cfg    OpenAIConfig
	client *http.Client
}

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenAI API key is not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (Result, error) {
	start := time.Now()
	payload, err := json.Marshal(openAIImageRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		N:      1,
		Size:   o.cfg.Size,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to build OpenAI request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/images/generations"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build OpenAI request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(o.cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reach OpenAI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read OpenAI response")
	}

	var parsed openAIImageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Result{}, fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
		}
		return Result{}, fmt.Errorf("failed to parse OpenAI response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return Result{}, fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}
	if len(parsed.Data) == 0 {
		return Result{}, errors.New("OpenAI returned no images")
	}

	handle := parsed.Data[0].URL
	if handle == "" && parsed.Data[0].B64JSON != "" {
		handle = "data:image/png;base64," + parsed.Data[0].B64JSON
	}
	if handle == "" {
		return Result{}, errors.New("OpenAI returned an empty image")
	}
	return Result{Handle: handle, Latency: time.Since(start)}, nil
}
