package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

type scriptStep struct {
	msg   *schema.Message
	err   error
	delay time.Duration
}

// scriptedModel replays steps in order and repeats the last one.
type scriptedModel struct {
	mu     sync.Mutex
	steps  []scriptStep
	calls  int
	inputs [][]*schema.Message
	tools  []*schema.ToolInfo
}

func (s *scriptedModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	s.mu.Lock()
	cp := make([]*schema.Message, len(input))
	copy(cp, input)
	s.inputs = append(s.inputs, cp)
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return nil, errors.New("no scripted step")
	}
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.calls++
	step := s.steps[idx]
	s.mu.Unlock()

	if step.delay > 0 {
		select {
		case <-time.After(step.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if step.err != nil {
		return nil, step.err
	}
	// Hand out a copy so post handlers never touch the script.
	out := *step.msg
	out.ToolCalls = append([]schema.ToolCall(nil), step.msg.ToolCalls...)
	return &out, nil
}

func (s *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := s.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (s *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = tools
	return s, nil
}

func (s *scriptedModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func answer(text string) scriptStep {
	return scriptStep{msg: schema.AssistantMessage(text, nil)}
}

func callTool(name, args string) scriptStep {
	return scriptStep{msg: schema.AssistantMessage("", []schema.ToolCall{{
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})}
}

type fakeKnowledge struct {
	texts        []string
	err          error
	lastQuery    string
	lastCategory model.Category
}

func (f *fakeKnowledge) Search(_ context.Context, query string, category model.Category) ([]string, error) {
	f.lastQuery = query
	f.lastCategory = category
	return f.texts, f.err
}
