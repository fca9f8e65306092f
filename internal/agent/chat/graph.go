package chat

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/prompts"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// GraphConfig holds all configuration needed to build the chat graph
type GraphConfig struct {
	ChatModel    einomodel.ToolCallingChatModel
	ModelName    string
	Dispatcher   *Dispatcher
	MaxToolCalls int
	HistoryTurns int
}

// GraphBuilder handles the construction of the chat graph
type GraphBuilder struct {
	config       *GraphConfig
	graph        *compose.Graph[*turnInput, *schema.Message]
	systemPrompt string
	boundModel   einomodel.ToolCallingChatModel
}

// BuildGraph constructs and returns the compiled chat graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*turnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("capability dispatcher is nil")
	}

	systemPrompt, err := prompts.RenderChatSystem(ctx, prompts.ChatTools{
		Update:       ToolUpdateItinerary,
		Satisfaction: ToolAssessSatisfaction,
		Lookup:       ToolLookupDomainKnowledge,
	}, RedirectMessage)
	if err != nil {
		return nil, err
	}

	builder := &GraphBuilder{
		config:       config,
		systemPrompt: systemPrompt,
		graph: compose.NewGraph[*turnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the capability table to the model and the tools node
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	d := b.config.Dispatcher

	toolInfos, err := d.ToolInfos(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	bound, err := b.config.ChatModel.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to chat model")
		return fmt.Errorf("failed to bind tools to chat model: %w", err)
	}
	b.boundModel = bound

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               d.Tools(),
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			return d.Dispatch(ctx, name, input)
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return sanitizeArguments(name, arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(NewToolExecutorPreHandler(b.config.MaxToolCalls)),
	)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	if err := b.graph.AddLambdaNode(NodeInputConverter,
		NewInputConverterNode(b.systemPrompt, b.config.HistoryTurns),
		compose.WithStatePreHandler(NewInputConverterPreHandler()),
	); err != nil {
		return fmt.Errorf("error adding input converter: %w", err)
	}

	if err := b.graph.AddChatModelNode(NodeChatModel,
		b.boundModel,
		compose.WithStatePreHandler(NewChatModelPreHandler(b.config.MaxToolCalls)),
		compose.WithStatePostHandler(NewChatModelPostHandler(b.config.ModelName)),
	); err != nil {
		return fmt.Errorf("error adding chat model: %w", err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, NodeInputConverter},
		{NodeInputConverter, NodeChatModel},
		{NodeToolExecutor, NodeChatModel},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		NewToolExecutorCondition(),
		map[string]bool{
			NodeToolExecutor: true,
			compose.END:      true,
		},
	)
	if err := b.graph.AddBranch(NodeChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*turnInput, *schema.Message], error) {
	// Each tool round costs two steps; bound the loop.
	maxSteps := 10 + normalizeMaxToolCalls(b.config.MaxToolCalls)*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithGraphName("travel_chat"), compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Chat graph compiled successfully")
	return runnable, nil
}
