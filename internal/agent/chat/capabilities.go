package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/samber/lo"

	"github.com/saturdai/travel-planner/internal/agent/model"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// Capability names offered to the chat model.
const (
	ToolUpdateItinerary       = "update_itinerary"
	ToolAssessSatisfaction    = "assess_satisfaction"
	ToolLookupDomainKnowledge = "lookup_domain_knowledge"
)

// KnowledgeSearcher is the knowledge index as seen by the lookup capability.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, category model.Category) ([]string, error)
}

// TurnOutcome collects what capabilities decided during one turn. It travels
// in the request context so handlers stay free of graph state.
type TurnOutcome struct {
	mu              sync.Mutex
	updateRequested bool
	updateRequest   string
	satisfaction    *model.Satisfaction
	warnings        []model.Warning
}

type outcomeKey struct{}

func withOutcome(ctx context.Context, o *TurnOutcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, o)
}

func outcomeFrom(ctx context.Context) *TurnOutcome {
	if o, ok := ctx.Value(outcomeKey{}).(*TurnOutcome); ok {
		return o
	}
	// Handlers invoked outside a turn record into a throwaway outcome.
	return &TurnOutcome{}
}

func (o *TurnOutcome) requestUpdate(change string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updateRequested = true
	if o.updateRequest == "" {
		o.updateRequest = change
	} else {
		o.updateRequest += "\n" + change
	}
}

func (o *TurnOutcome) setSatisfaction(s model.Satisfaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.satisfaction = &s
}

func (o *TurnOutcome) warn(w model.Warning) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warnings = append(o.warnings, w)
}

// applyTo copies the outcome onto a reply.
func (o *TurnOutcome) applyTo(reply *model.ChatReply) {
	o.mu.Lock()
	defer o.mu.Unlock()
	reply.UpdateRequested = o.updateRequested
	reply.UpdateRequest = o.updateRequest
	reply.Satisfaction = o.satisfaction
	reply.Warnings = append(reply.Warnings, o.warnings...)
}

// ===================================
// Dispatch table
// ===================================

// Dispatcher maps capability names to their local handlers.
type Dispatcher struct {
	table map[string]tool.InvokableTool
	order []string
}

// NewDispatcher builds the capability table. knowledge may be nil, in which
// case lookups report that the knowledge base is unavailable.
func NewDispatcher(knowledge KnowledgeSearcher) *Dispatcher {
	d := &Dispatcher{table: map[string]tool.InvokableTool{}}
	d.register(ToolUpdateItinerary, newUpdateItineraryTool())
	d.register(ToolAssessSatisfaction, newAssessSatisfactionTool())
	d.register(ToolLookupDomainKnowledge, newLookupTool(knowledge))
	return d
}

func (d *Dispatcher) register(name string, t tool.InvokableTool) {
	d.table[name] = t
	d.order = append(d.order, name)
}

// Tools returns the capabilities in registration order, each routed back
// through Dispatch.
func (d *Dispatcher) Tools() []tool.BaseTool {
	return lo.Map(d.order, func(name string, _ int) tool.BaseTool {
		return &boundTool{name: name, d: d}
	})
}

// boundTool exposes one dispatch table entry to the tools node.
type boundTool struct {
	name string
	d    *Dispatcher
}

func (b *boundTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return b.d.table[b.name].Info(ctx)
}

func (b *boundTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	return b.d.Dispatch(ctx, b.name, argumentsInJSON, opts...)
}

// ToolInfos returns the schemas advertised to the model.
func (d *Dispatcher) ToolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(d.order))
	for _, name := range d.order {
		info, err := d.table[name].Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Dispatch runs the named capability. Unknown names yield a structured
// result the model can recover from rather than an error.
func (d *Dispatcher) Dispatch(ctx context.Context, name, arguments string, opts ...tool.Option) (string, error) {
	t, ok := d.table[name]
	if !ok {
		logx.Warn().
			Str("tool_name", name).
			Str("arguments", arguments).
			Msg("Unknown or invalid tool call; returning fallback result")
		return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
	}
	return t.InvokableRun(ctx, arguments, opts...)
}

// sanitizeArguments trims string fields and coerces loosely typed values.
// It never fails; unparseable input is passed through.
func sanitizeArguments(name, arguments string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}

	switch name {
	case ToolUpdateItinerary:
		trimStringField(m, "change_request")
	case ToolAssessSatisfaction:
		trimStringField(m, "reason")
		if v, ok := m["satisfied"]; ok {
			if s, ok := v.(string); ok {
				m["satisfied"] = strings.EqualFold(strings.TrimSpace(s), "true")
			}
		}
	case ToolLookupDomainKnowledge:
		trimStringField(m, "query")
		if v, ok := m["category"]; ok {
			if s, ok := v.(string); ok {
				m["category"] = string(model.ParseCategory(s))
			} else {
				delete(m, "category")
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

func trimStringField(m map[string]any, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	switch vv := v.(type) {
	case string:
		m[key] = strings.TrimSpace(vv)
	default:
		m[key] = strings.TrimSpace(fmt.Sprint(v))
	}
}

// ===================================
// update_itinerary
// ===================================

type UpdateItineraryInput struct {
	ChangeRequest string `json:"change_request"`
}

type UpdateItineraryOutput struct {
	Status string `json:"status"`
}

func newUpdateItineraryTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolUpdateItinerary,
			Desc: "Schedule a rewrite of the traveler's itinerary. Use this whenever the traveler asks to add, remove, move or change anything in their plan.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"change_request": {
					Type:     schema.String,
					Desc:     "Precise description of the change, e.g. 'replace the day 2 museum visit with a cooking class'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *UpdateItineraryInput) (*UpdateItineraryOutput, error) {
			if in.ChangeRequest == "" {
				return nil, fmt.Errorf("change_request is required")
			}
			outcomeFrom(ctx).requestUpdate(in.ChangeRequest)
			return &UpdateItineraryOutput{Status: "update_scheduled"}, nil
		},
	)
}

// ===================================
// assess_satisfaction
// ===================================

type AssessSatisfactionInput struct {
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason,omitempty"`
}

type AssessSatisfactionOutput struct {
	Recorded  bool `json:"recorded"`
	Satisfied bool `json:"satisfied"`
}

func newAssessSatisfactionTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolAssessSatisfaction,
			Desc: "Record whether the traveler is satisfied with the current itinerary, based on what they said.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"satisfied": {
					Type:     schema.Boolean,
					Desc:     "True when the traveler is happy with the itinerary as it is.",
					Required: true,
				},
				"reason": {
					Type: schema.String,
					Desc: "Short reason quoted or paraphrased from the traveler.",
				},
			}),
		},
		func(ctx context.Context, in *AssessSatisfactionInput) (*AssessSatisfactionOutput, error) {
			outcomeFrom(ctx).setSatisfaction(model.Satisfaction{Satisfied: in.Satisfied, Reason: in.Reason})
			return &AssessSatisfactionOutput{Recorded: true, Satisfied: in.Satisfied}, nil
		},
	)
}

// ===================================
// lookup_domain_knowledge
// ===================================

type LookupInput struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

type LookupOutput struct {
	Passages []string `json:"passages"`
	Total    int      `json:"total"`
	Error    string   `json:"error,omitempty"`
}

func newLookupTool(knowledge KnowledgeSearcher) tool.InvokableTool {
	categories := lo.Map(model.Categories(), func(c model.Category, _ int) string { return string(c) })

	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolLookupDomainKnowledge,
			Desc: "Search the curated Vietnam travel knowledge base for hidden gems, food culture, local insights and practical tips.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "What to look up, e.g. 'best pho in Hanoi Old Quarter'.",
					Required: true,
				},
				"category": {
					Type: schema.String,
					Desc: "Optional category filter. Available categories: " + strings.Join(categories, ", "),
					Enum: categories,
				},
			}),
		},
		func(ctx context.Context, in *LookupInput) (*LookupOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			if knowledge == nil {
				return &LookupOutput{Passages: []string{}, Error: "knowledge base unavailable"}, nil
			}

			passages, err := knowledge.Search(ctx, in.Query, model.ParseCategory(in.Category))
			if err != nil {
				logx.Warn().Err(err).Str("query", in.Query).Msg("knowledge lookup failed")
				outcomeFrom(ctx).warn(model.NewWarning(model.StageChat, err))
				return &LookupOutput{Passages: []string{}, Error: "knowledge base unavailable"}, nil
			}
			if passages == nil {
				passages = []string{}
			}
			return &LookupOutput{Passages: passages, Total: len(passages)}, nil
		},
	)
}
