// Package planner decomposes a free-text goal into ordered micro-quests
// by calling an OpenAI-compatible chat-completions endpoint. The planner
// never fails: any transport, decode, or validation error degrades to a
// deterministic single-step fallback so the caller always gets a plan.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spirequest/spire/internal/domain"
)

const systemPrompt = `You are the Spire Architect. Break the user's goal into ` +
	`3 to 5 concrete micro-quests. Respond with ONLY a JSON array, no prose. ` +
	`Each element: {"title": string, "xp": int between 10 and 50, ` +
	`"deadlineOffset": int days from now, ascending}.`

// Config controls the planner client.
type Config struct {
	BaseURL string        // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration // per-request budget
}

// DefaultConfig returns production defaults. BaseURL and APIKey must be
// supplied by the operator; without them every call falls back.
func DefaultConfig() Config {
	return Config{
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
	}
}

// Client calls the chat-completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a planner client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// ─── Wire Types ─────────────────────────────────────────────────────────────

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ─── Decomposition ──────────────────────────────────────────────────────────

// BreakDown returns the micro-quest plan for a goal. Errors are logged
// and swallowed behind the fallback plan.
func (c *Client) BreakDown(ctx context.Context, goal string) []domain.GoalStep {
	steps, err := c.breakDown(ctx, goal)
	if err != nil {
		log.Printf("[planner] decompose %q: %v", goal, err)
		return Fallback(goal)
	}
	return steps
}

func (c *Client) breakDown(ctx context.Context, goal string) ([]domain.GoalStep, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("no endpoint configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: goal},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("empty choices")
	}
	return ParseSteps(cr.Choices[0].Message.Content)
}

// ParseSteps extracts the JSON array from a model reply. Models often
// wrap the array in markdown fences or prose, so everything outside the
// first '[' and the last ']' is discarded.
func ParseSteps(content string) ([]domain.GoalStep, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var steps []domain.GoalStep
	if err := json.Unmarshal([]byte(content[start:end+1]), &steps); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty plan")
	}

	for i := range steps {
		if strings.TrimSpace(steps[i].Title) == "" {
			return nil, fmt.Errorf("step %d has no title", i)
		}
		if steps[i].XP < 10 {
			steps[i].XP = 10
		}
		if steps[i].XP > 50 {
			steps[i].XP = 50
		}
		if steps[i].DeadlineOffsetDays < 1 {
			steps[i].DeadlineOffsetDays = 1
		}
	}
	return steps, nil
}

// Fallback is the deterministic single-step plan used when the endpoint
// is unreachable or replies with garbage.
func Fallback(goal string) []domain.GoalStep {
	return []domain.GoalStep{{
		Title:              "Manual Override: " + goal,
		XP:                 100,
		DeadlineOffsetDays: 1,
	}}
}
