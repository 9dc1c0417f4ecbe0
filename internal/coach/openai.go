package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

const systemInstruction = `You are a personal development coach and accountability partner for a life tracking system called "Hasad".
Analyze the user's data (habits, goals, prayers, programs and daily logs) and give practical advice, encouragement, or firm and motivating accountability when they fall short.
Always answer in the language the user writes in. Focus on the data the user provides.`

// Compile-time interface check
var _ Coach = (*OpenAI)(nil)

// CompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements the coach using OpenAI chat completions.
type OpenAI struct {
	completions CompletionsService
	model       openai.ChatModel
	temperature float64
}

// NewOpenAI creates a new OpenAI coach.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAI(client.Chat.Completions, model)
}

func newOpenAI(svc CompletionsService, model string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		completions: svc,
		model:       openai.ChatModel(model),
		temperature: 0.7,
	}
}

// Advise answers req.Prompt, or DefaultPrompt when it is blank.
func (o *OpenAI) Advise(ctx context.Context, req Request) (string, error) {
	userData, err := json.Marshal(struct {
		State   any `json:"state"`
		Summary any `json:"summary"`
	}{req.State, req.Summary})
	if err != nil {
		return "", fmt.Errorf("encode user data: %w", err)
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	resp, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction + "\nCurrent user data: " + string(userData)),
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(o.model),
		Temperature: openai.F(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("coach completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("coach completion failed: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the chat model name
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
