package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

// render formats a single-message Go template through the eino prompt
// component so prompt callbacks fire.
func render(ctx context.Context, name string, msg *schema.Message, vars map[string]any) (*schema.Message, error) {
	tpl := prompt.FromMessages(schema.GoTemplate, msg)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0], nil
}

// PreferencesJSON renders preferences as indented JSON for prompts.
func PreferencesJSON(p model.Preferences) string {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", p)
	}
	return string(b)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
