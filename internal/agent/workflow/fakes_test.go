package workflow

import (
	"context"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

type searchReply struct {
	texts []string
	err   error
	delay time.Duration
}

type fakeSearcher struct {
	mu      sync.Mutex
	replies map[string]searchReply
	calls   []model.KnowledgeQuery
}

func (f *fakeSearcher) Search(ctx context.Context, query string, category model.Category) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model.KnowledgeQuery{Text: query, Category: category})
	reply := f.replies[query]
	f.mu.Unlock()

	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return reply.texts, reply.err
}

type providerReply struct {
	items []any
	err   error
	delay time.Duration
}

type fakeProvider struct {
	mu      sync.Mutex
	replies map[string]providerReply
	queries []string
}

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]any, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	reply := f.replies[query]
	f.mu.Unlock()

	if reply.delay > 0 {
		select {
		case <-time.After(reply.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return reply.items, reply.err
}

type fakeChatModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	panics bool
	block  bool
	inputs [][]*schema.Message
	usage  *schema.TokenUsage
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.panics {
		panic("client exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.reply, nil)
	if f.usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: f.usage}
	}
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return ""
	}
	in := f.inputs[len(f.inputs)-1]
	return in[len(in)-1].Content
}

func item(title, content, url string) map[string]any {
	return map[string]any{"title": title, "content": content, "url": url}
}
