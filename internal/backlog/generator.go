// Package backlog proposes the next feature of a project with a chat model.
package backlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/store"
)

const systemPrompt = `You are a software architect designing the next evolution of a fullstack application.
Your task is to analyze the current state and suggest the next logical feature to implement.
Return your response as a JSON object with the following structure:
{
  "id": "feature-unique-id",
  "name": "Feature Name (concise)",
  "description": "Brief description of what this feature does",
  "dependencies": ["existing-feature-id-or-empty-array"]
}

Rules:
1. Suggest features that build upon existing completed features
2. Dependencies should reference the id of existing features
3. Keep names concise but descriptive
4. Only suggest features that are technically feasible`

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// ChatClient is the subset of the go-openai client the generator needs
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Feature is a proposed backlog item
type Feature struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
}

// Item converts the feature into a pending backlog item.
func (f Feature) Item() *store.BacklogItem {
	deps := f.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return &store.BacklogItem{
		ID:           f.ID,
		Name:         f.Name,
		Description:  f.Description,
		Dependencies: deps,
	}
}

// Fallback is the feature proposed when the model gives no usable answer.
func Fallback(cycle int) Feature {
	return Feature{
		ID:           fmt.Sprintf("feature-%d", cycle),
		Name:         "Advanced Search & Data Filtering",
		Description:  "Implement advanced search with filtering capabilities",
		Dependencies: []string{"crud-feature"},
	}
}

// Generator asks a chat model for the next feature
type Generator struct {
	client ChatClient
	model  string
}

// NewGenerator creates a generator from the llm configuration
func NewGenerator(cfg *config.LLMConfig) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm.api_key is required (or configure embedding.api_key)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewGeneratorWithClient(openai.NewClientWithConfig(clientConfig), cfg.Model), nil
}

// NewGeneratorWithClient creates a generator around an existing client
func NewGeneratorWithClient(client ChatClient, model string) *Generator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{client: client, model: model}
}

// Next proposes the feature that follows items. ragContext, when not empty,
// is added to the prompt as reference material. A missing or already used
// id is replaced with a fresh one. Any model or parse failure is logged and
// answered with Fallback; only cancellation is returned.
func (g *Generator) Next(ctx context.Context, items []store.BacklogItem, ragContext string) (Feature, error) {
	feature, err := g.propose(ctx, items, ragContext)
	if err != nil {
		return Feature{}, err
	}
	if feature.ID == "" || slices.ContainsFunc(items, func(item store.BacklogItem) bool { return item.ID == feature.ID }) {
		feature.ID = "feature-" + uuid.NewString()[:8]
	}
	return feature, nil
}

func (g *Generator) propose(ctx context.Context, items []store.BacklogItem, ragContext string) (Feature, error) {
	cycle := len(items) + 1

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(cycle, items, ragContext)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Feature{}, ctx.Err()
		}
		log.Printf("Warning: failed to generate next feature: %v", err)
		return Fallback(cycle), nil
	}
	if len(resp.Choices) == 0 {
		log.Printf("Warning: empty chat response")
		return Fallback(cycle), nil
	}

	feature, err := parseFeature(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("Warning: failed to parse LLM response: %v", err)
		return Fallback(cycle), nil
	}
	return feature, nil
}

func parseFeature(reply string) (Feature, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		raw = reply
	}
	var feature Feature
	if err := json.Unmarshal([]byte(raw), &feature); err != nil {
		return Feature{}, err
	}
	if strings.TrimSpace(feature.Name) == "" {
		return Feature{}, fmt.Errorf("feature has no name")
	}
	return feature, nil
}

func buildPrompt(cycle int, items []store.BacklogItem, ragContext string) string {
	var b strings.Builder
	var completed []string
	for _, item := range items {
		if item.Completed {
			completed = append(completed, item.ID)
		}
	}

	fmt.Fprintf(&b, "Current evolution cycle: %d\n", cycle)
	fmt.Fprintf(&b, "Current features (completed/total): %d/%d\n\n", len(completed), len(items))
	b.WriteString("Existing features:\n")
	for _, item := range items {
		status := "pending"
		if item.Completed {
			status = "completed"
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", item.ID, item.Name, status)
	}
	fmt.Fprintf(&b, "\nCompleted features:\n%s\n", strings.Join(completed, ", "))

	if strings.TrimSpace(ragContext) != "" {
		b.WriteString("\nRelated material from indexed repositories:\n")
		b.WriteString(ragContext)
		b.WriteString("\n")
	}

	b.WriteString("\nSuggest the next feature to implement. Return only a JSON object.")
	return b.String()
}
