package workflow

import (
	"strings"

	"github.com/samber/lo"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

// Merge renders the non-empty sections as "label:\ntext" blocks joined by a
// blank line. Caller order is kept; nothing is reordered or deduplicated.
func Merge(sections []model.Section) string {
	present := lo.Filter(sections, func(s model.Section, _ int) bool {
		return strings.TrimSpace(s.Text) != ""
	})
	parts := lo.Map(present, func(s model.Section, _ int) string {
		return s.Label + ":\n" + s.Text
	})
	return strings.Join(parts, "\n\n")
}
