package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Acterion/forum-helper/internal/models"
)

// Generator produces a feedback-plus-rewrite suggestion for a draft
// reply. The wizard only ever sees this interface; tests substitute a
// canned implementation.
type Generator interface {
	Suggest(ctx context.Context, c models.Case, draft string) (string, error)
}

const assistSystemPrompt = `You are a writing assistant on a peer-support forum. ` +
	`You will be given the original post of a thread, the replies already posted, and a draft reply a user is writing. ` +
	`First give one or two sentences of concrete feedback on the draft. ` +
	`Then, in a new paragraph, give a rewritten version of the reply that keeps the user's voice, intent and level of personal disclosure. ` +
	`Do not invent facts about the user. Keep the whole answer short.`

// OpenAIGenerator calls a chat-completion model with a fixed system
// prompt and the case thread as context.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(apiKey, model string, timeout time.Duration) *OpenAIGenerator {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (g *OpenAIGenerator) Suggest(ctx context.Context, c models.Case, draft string) (string, error) {
	prompt, err := buildAssistPrompt(c, draft)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfig, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: assistSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   600,
	})
	if err != nil {
		log.Warn().Err(err).Str("case", c.ID).Dur("after", time.Since(started)).Msg("assist call failed")
		return "", fmt.Errorf("%w: %v", ErrAssistUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrAssistUnavailable)
	}

	log.Debug().Str("case", c.ID).Dur("took", time.Since(started)).Msg("assist suggestion generated")
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildAssistPrompt(c models.Case, draft string) (string, error) {
	main, err := c.Post()
	if err != nil {
		return "", err
	}
	replies, err := c.ReplyPosts()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thread: %s\n\nOriginal post by %s:\n%s\n", c.Title, main.Author, main.Content)
	if len(replies) > 0 {
		b.WriteString("\nExisting replies:\n")
		for _, r := range replies {
			fmt.Fprintf(&b, "- %s: %s\n", r.Author, r.Content)
		}
	}
	fmt.Fprintf(&b, "\nThe user's draft reply:\n%s\n", draft)
	return b.String(), nil
}
