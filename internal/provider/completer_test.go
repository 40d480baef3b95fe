package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragcypher-go/internal/translator"
)

// stubModel is a BaseChatModel that records what it was called with.
type stubModel struct {
	resp *schema.Message
	err  error

	gotMsgs []*schema.Message
	gotOpts *model.Options
}

func (s *stubModel) Generate(_ context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.gotMsgs = in
	s.gotOpts = model.GetCommonOptions(nil, opts...)
	return s.resp, s.err
}

func (s *stubModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	m := &stubModel{resp: schema.AssistantMessage("MATCH (n) RETURN n", nil)}
	c := NewCompleter(m, BackendOllama)

	choices, err := c.Complete(context.Background(), translator.ChatRequest{
		Model:       "llama3",
		Temperature: 0,
		Messages: []translator.Message{
			{Role: translator.RoleSystem, Content: "sys"},
			{Role: translator.RoleUser, Content: "Show nodes"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if len(choices) != 1 || choices[0] != "MATCH (n) RETURN n" {
		t.Fatalf("Complete() = %v, want single Cypher choice", choices)
	}

	if len(m.gotMsgs) != 2 {
		t.Fatalf("model received %d messages, want 2", len(m.gotMsgs))
	}
	if m.gotMsgs[0].Role != schema.System || m.gotMsgs[0].Content != "sys" {
		t.Errorf("first message = %+v, want system/sys", m.gotMsgs[0])
	}
	if m.gotMsgs[1].Role != schema.User || m.gotMsgs[1].Content != "Show nodes" {
		t.Errorf("second message = %+v, want user/Show nodes", m.gotMsgs[1])
	}
	if m.gotOpts.Model == nil || *m.gotOpts.Model != "llama3" {
		t.Errorf("model option = %v, want llama3", m.gotOpts.Model)
	}
	if m.gotOpts.Temperature == nil || *m.gotOpts.Temperature != 0 {
		t.Errorf("temperature option = %v, want explicit 0", m.gotOpts.Temperature)
	}
}

func TestCompleter_NilMessageYieldsNoChoices(t *testing.T) {
	t.Parallel()

	c := NewCompleter(&stubModel{}, BackendOpenAI)
	choices, err := c.Complete(context.Background(), translator.ChatRequest{Model: "gpt-3.5-turbo"})
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if len(choices) != 0 {
		t.Errorf("Complete() = %v, want no choices", choices)
	}
}

func TestCompleter_ReasoningModelOmitsTemperature(t *testing.T) {
	t.Parallel()

	m := &stubModel{resp: schema.AssistantMessage("x", nil)}
	c := NewCompleter(m, BackendAzure)
	if _, err := c.Complete(context.Background(), translator.ChatRequest{Model: "o3-mini", Temperature: 0.2}); err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if m.gotOpts.Temperature != nil {
		t.Errorf("temperature option = %v, want unset for reasoning model", *m.gotOpts.Temperature)
	}
}

func TestCompleter_GenerateError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	c := NewCompleter(&stubModel{err: sentinel}, BackendArk)
	_, err := c.Complete(context.Background(), translator.ChatRequest{Model: "ep-1"})
	if !errors.Is(err, sentinel) {
		t.Errorf("Complete() error = %v, want wrapped sentinel", err)
	}
}

func TestCompleter_UnsupportedRole(t *testing.T) {
	t.Parallel()

	c := NewCompleter(&stubModel{}, BackendGemini)
	_, err := c.Complete(context.Background(), translator.ChatRequest{
		Messages: []translator.Message{{Role: "tool", Content: "x"}},
	})
	if err == nil {
		t.Fatal("Complete() expected error for unsupported role, got nil")
	}
}
