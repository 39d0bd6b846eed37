// Package ai wraps the external text-generation collaborator. The core
// only ever asks it for a content body; prompt construction and model
// choice live on the other side of the endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PlatformConstraints narrows generation for a publishing target.
type PlatformConstraints struct {
	Platform  string `json:"platform,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

// Generator produces a content body for a topic.
type Generator interface {
	Generate(ctx context.Context, topic, brandVoice string, constraints PlatformConstraints) (string, error)
}

// HTTPGenerator posts generation requests to a configured completion
// endpoint.
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewHTTPGenerator(endpoint, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, topic, brandVoice string, constraints PlatformConstraints) (string, error) {
	if g.endpoint == "" {
		return "", fmt.Errorf("content generation is not configured (AI_ENDPOINT is empty)")
	}

	body, err := json.Marshal(map[string]interface{}{
		"topic":       topic,
		"brand_voice": brandVoice,
		"constraints": constraints,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("generation failed: %s - %s", resp.Status, string(respBody))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", fmt.Errorf("generation returned empty text")
	}
	return out.Text, nil
}
