package generate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/domain"
)

// DefaultInstruction is the system prompt when the config provides none.
const DefaultInstruction = "You are a helpful assistant that answers questions using only the provided documents. Keep answers short and factual."

const answerTemplate = `Based on the following context, please answer the question.
If the answer cannot be found in the context, say "I don't have enough information to answer this question."

Context:
%s

Question: %s

Answer:`

// completer is the slice of the chat API the generator uses. Tests inject
// a failing fake through it.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator turns a grounding context and question into an answer via a
// hosted chat model. Provider failures come back as "Error: ..." text so
// the chat loop stays usable after a transient outage.
type Generator struct {
	client      completer
	model       string
	instruction string
	timeout     time.Duration
}

// Config configures the hosted generator. The API key is read from the
// environment variable named by APIKeyEnv; its absence is fatal at startup.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Instruction string
	Timeout     time.Duration
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		instruction: cfg.Instruction,
		timeout:     cfg.Timeout,
	}, nil
}

// Answer sends instruction + history + grounded question to the model and
// returns the completion text. It never returns an error value: transport
// and provider failures become a user-visible "Error: ..." string.
func (g *Generator) Answer(ctx context.Context, grounding, question string, history []domain.ChatTurn) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	instruction := g.instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instruction,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf(answerTemplate, grounding, question),
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(resp.Choices) == 0 {
		return "Error: model returned no choices"
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
