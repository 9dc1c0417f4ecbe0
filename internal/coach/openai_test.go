package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/types"
)

// mockCompletionsService implements CompletionsService for testing
type mockCompletionsService struct {
	response  *openai.ChatCompletion
	err       error
	callCount int
	lastModel openai.ChatModel
	messages  int
}

func (m *mockCompletionsService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.callCount++
	m.lastModel = params.Model.Value
	m.messages = len(params.Messages.Value)
	return m.response, m.err
}

func completion(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func sampleRequest(prompt string) Request {
	s := state.MarkAllPrayed("2024-01-12")(types.NewState("2024-01-01"))
	return Request{State: s, Summary: state.Summarize(s, "2024-01-12"), Prompt: prompt}
}

func TestOpenAI_Advise(t *testing.T) {
	mock := &mockCompletionsService{response: completion("Keep going.")}
	c := newOpenAI(mock, "")

	text, err := c.Advise(context.Background(), sampleRequest("How am I doing?"))
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if text != "Keep going." {
		t.Errorf("Advise() = %q, want %q", text, "Keep going.")
	}
	if mock.lastModel != DefaultModel {
		t.Errorf("model = %q, want %q", mock.lastModel, DefaultModel)
	}
	if mock.messages != 2 {
		t.Errorf("messages = %d, want system and user", mock.messages)
	}
}

func TestOpenAI_AdviseError(t *testing.T) {
	mock := &mockCompletionsService{err: errors.New("rate limited")}
	c := newOpenAI(mock, "gpt-4o")

	_, err := c.Advise(context.Background(), sampleRequest(""))
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Advise() error = %v, want wrapped API error", err)
	}
}

func TestOpenAI_AdviseNoChoices(t *testing.T) {
	mock := &mockCompletionsService{response: &openai.ChatCompletion{}}
	c := newOpenAI(mock, "gpt-4o")

	if _, err := c.Advise(context.Background(), sampleRequest("")); err == nil {
		t.Error("Advise() error = nil, want error for empty choices")
	}
}

func TestOpenAI_AdviseCancelledContext(t *testing.T) {
	mock := &mockCompletionsService{response: completion("x")}
	c := newOpenAI(mock, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Advise(ctx, sampleRequest("")); !errors.Is(err, context.Canceled) {
		t.Errorf("Advise() error = %v, want context.Canceled", err)
	}
}

func TestOpenAI_ModelName(t *testing.T) {
	if got := newOpenAI(&mockCompletionsService{}, "gpt-4o").ModelName(); got != "gpt-4o" {
		t.Errorf("ModelName() = %q, want gpt-4o", got)
	}
}

func TestNoop_NotConfigured(t *testing.T) {
	_, err := Noop{}.Advise(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Advise() error = %v, want ErrNotConfigured", err)
	}
}
