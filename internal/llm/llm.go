// Package llm generates advisory task guidance for sub-agent delegation.
// Guidance is always optional: callers degrade to the raw issue text when
// the API is unavailable.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"director/internal/models"
)

// Client wraps the Anthropic API for guidance generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Guidance is the LLM-generated enrichment handed to a sub-agent alongside
// the issue itself.
type Guidance struct {
	Summary          string `json:"summary"`
	TaskInstructions string `json:"task_instructions"`
}

// buildGuidancePrompt constructs the system and user prompts for task
// guidance generation.
func buildGuidancePrompt(issue *models.Issue) (system string, user string) {
	system = `You prepare work orders for autonomous coding agents. Given an issue's title, description, and tags, return a JSON object with exactly two fields:

- "summary": A concise 1-3 sentence restatement of what this issue asks for, suitable for a session log.
- "task_instructions": Detailed guidance (3-10 sentences) for the coding agent that will implement this issue. Include: what needs to be built or fixed, key technical considerations, suggested approach, files or areas likely affected, and acceptance criteria. Be specific and actionable.

Rules:
- Return valid JSON only, no markdown fencing or explanation
- The task_instructions should be specific enough that an agent can start working immediately
- If the description is empty, infer as much as possible from the title and tags alone`

	var sb strings.Builder
	sb.WriteString("Issue title: ")
	sb.WriteString(issue.Title)
	sb.WriteString("\n")
	if issue.Description != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(issue.Description)
		sb.WriteString("\n")
	}
	if len(issue.Tags) > 0 {
		sb.WriteString("\nTags: ")
		sb.WriteString(strings.Join(issue.Tags, ", "))
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// GenerateGuidance sends issue data to the LLM and returns a summary and
// task instructions for the implementing agent.
func (c *Client) GenerateGuidance(ctx context.Context, issue *models.Issue) (*Guidance, error) {
	systemPrompt, userPrompt := buildGuidancePrompt(issue)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	text = stripFencing(text)

	var guidance Guidance
	if err := json.Unmarshal([]byte(text), &guidance); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return &guidance, nil
}

// stripFencing removes markdown code fencing the model sometimes wraps
// around JSON despite instructions.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
