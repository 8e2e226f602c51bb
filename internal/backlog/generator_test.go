package backlog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/forgerag/internal/config"
	"github.com/DreamCats/forgerag/internal/store"
)

type fakeChat struct {
	reply string
	err   error
	req   openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

var existing = []store.BacklogItem{
	{ID: "auth-feature", Name: "Authentication", Completed: true},
	{ID: "crud-feature", Name: "CRUD Operations"},
}

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  Feature
	}{
		{
			name:  "plain json",
			reply: `{"id":"notifications","name":"Notifications","description":"Email alerts","dependencies":["auth-feature"]}`,
			want:  Feature{ID: "notifications", Name: "Notifications", Description: "Email alerts", Dependencies: []string{"auth-feature"}},
		},
		{
			name:  "json inside prose",
			reply: "Sure! Here it is:\n```json\n{\"id\":\"export\",\"name\":\"CSV Export\",\"description\":\"\",\"dependencies\":[]}\n```",
			want:  Feature{ID: "export", Name: "CSV Export", Dependencies: []string{}},
		},
		{
			name:  "unparseable reply",
			reply: "I cannot help with that.",
			want:  Fallback(3),
		},
		{
			name:  "missing name",
			reply: `{"id":"x"}`,
			want:  Fallback(3),
		},
		{
			name: "model error",
			err:  errors.New("503 service unavailable"),
			want: Fallback(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{reply: tt.reply, err: tt.err}
			got, err := NewGeneratorWithClient(chat, "").Next(context.Background(), existing, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "gpt-4o-mini", chat.req.Model)
		})
	}
}

func TestNextGeneratesMissingID(t *testing.T) {
	chat := &fakeChat{reply: `{"name":"Dark Mode","dependencies":[]}`}
	got, err := NewGeneratorWithClient(chat, "m").Next(context.Background(), nil, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.ID, "feature-"))
	assert.Len(t, got.ID, len("feature-")+8)
}

func TestNextReplacesUsedID(t *testing.T) {
	chat := &fakeChat{reply: `{"id":"crud-feature","name":"CRUD v2"}`}
	got, err := NewGeneratorWithClient(chat, "m").Next(context.Background(), existing, "")
	require.NoError(t, err)
	assert.NotEqual(t, "crud-feature", got.ID)
	assert.Equal(t, "CRUD v2", got.Name)
}

func TestNextPrompt(t *testing.T) {
	chat := &fakeChat{reply: `{"id":"a","name":"A"}`}
	_, err := NewGeneratorWithClient(chat, "m").Next(context.Background(), existing, "[Source: acme/kit - unknown]\nuse queues")
	require.NoError(t, err)

	require.Len(t, chat.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, chat.req.Messages[0].Role)
	prompt := chat.req.Messages[1].Content
	assert.Contains(t, prompt, "Current evolution cycle: 3")
	assert.Contains(t, prompt, "(completed/total): 1/2")
	assert.Contains(t, prompt, "- crud-feature: CRUD Operations (pending)")
	assert.Contains(t, prompt, "use queues")
}

func TestNextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chat := &fakeChat{err: context.Canceled}
	_, err := NewGeneratorWithClient(chat, "m").Next(ctx, nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeatureItem(t *testing.T) {
	item := Feature{ID: "x", Name: "X"}.Item()
	assert.Equal(t, []string{}, item.Dependencies)
	assert.False(t, item.Completed)
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(&config.LLMConfig{})
	assert.Error(t, err)

	g, err := NewGenerator(&config.LLMConfig{APIKey: "k", Model: "doubao"})
	require.NoError(t, err)
	assert.Equal(t, "doubao", g.model)
}
