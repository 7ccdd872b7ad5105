package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type fakeCompleter struct {
	fn  func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	got openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.fn(ctx, req)
}

func completing(text string) *fakeCompleter {
	return &fakeCompleter{fn: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: text}}},
		}, nil
	}}
}

func TestAnswerTransportFailureBecomesText(t *testing.T) {
	failing := &fakeCompleter{fn: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, errors.New("connection refused")
	}}
	g := &Generator{client: failing, model: "test-model"}

	got := g.Answer(context.Background(), "some context", "a question", nil)
	assert.True(t, strings.HasPrefix(got, "Error:"), "got %q", got)
}

func TestAnswerEmptyChoices(t *testing.T) {
	empty := &fakeCompleter{fn: func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, nil
	}}
	g := &Generator{client: empty, model: "test-model"}
	assert.True(t, strings.HasPrefix(g.Answer(context.Background(), "c", "q", nil), "Error:"))
}

func TestAnswerPromptAssembly(t *testing.T) {
	fake := completing("  the answer  ")
	g := &Generator{client: fake, model: "test-model", instruction: "be brief"}

	history := []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}
	got := g.Answer(context.Background(), "grounding text", "the question", history)
	assert.Equal(t, "the answer", got)

	msgs := fake.got.Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[3].Role)
	assert.Contains(t, msgs[3].Content, "grounding text")
	assert.Contains(t, msgs[3].Content, "Question: the question")
}

func TestAnswerDefaultInstruction(t *testing.T) {
	fake := completing("ok")
	g := &Generator{client: fake, model: "test-model"}
	g.Answer(context.Background(), "c", "q", nil)
	assert.Equal(t, DefaultInstruction, fake.got.Messages[0].Content)
}

func TestAnswerAppliesTimeout(t *testing.T) {
	fake := &fakeCompleter{fn: func(ctx context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		_, ok := ctx.Deadline()
		require.True(t, ok, "timeout must be applied to the outbound call")
		return openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
		}, nil
	}}
	g := &Generator{client: fake, model: "test-model", timeout: time.Second}
	assert.Equal(t, "ok", g.Answer(context.Background(), "c", "q", nil))
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("RAGCHAT_TEST_KEY", "")
	_, err := New(Config{APIKeyEnv: "RAGCHAT_TEST_KEY"})
	require.Error(t, err)

	t.Setenv("RAGCHAT_TEST_KEY", "sk-test")
	g, err := New(Config{APIKeyEnv: "RAGCHAT_TEST_KEY"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}
