package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

func TestBuildKnowledgeQueries(t *testing.T) {
	tests := []struct {
		holidayType string
		wantText    string
		wantCat     model.Category
	}{
		{"Food", "Vietnam food culture Hanoi", model.CategoryFoodCulture},
		{"culture", "Vietnam food culture Hanoi", model.CategoryFoodCulture},
		{"FAMILY", "Vietnam food culture Hanoi", model.CategoryFoodCulture},
		{"Adventure", "Vietnam hidden gems adventure Hanoi", model.CategoryHiddenGems},
		{"backpacking", "Vietnam hidden gems adventure Hanoi", model.CategoryHiddenGems},
		{"Party", "Vietnam festivals nightlife Hanoi", model.CategoryLocalInsights},
		{"festival", "Vietnam festivals nightlife Hanoi", model.CategoryLocalInsights},
		{"Relaxation", "Vietnam local insights Hanoi", model.CategoryLocalInsights},
		{"", "Vietnam local insights Hanoi", model.CategoryLocalInsights},
	}

	for _, tt := range tests {
		t.Run(tt.holidayType, func(t *testing.T) {
			queries := BuildKnowledgeQueries(model.Preferences{Destination: "Hanoi", HolidayType: tt.holidayType})
			require.Len(t, queries, 2)
			assert.Equal(t, model.CategoryNone, queries[0].Category)
			assert.Equal(t, tt.wantText, queries[1].Text)
			assert.Equal(t, tt.wantCat, queries[1].Category)
		})
	}
}

func TestBuildKnowledgeQueries_FoodContainsDestination(t *testing.T) {
	for _, ht := range []string{"food", "culture", "family"} {
		queries := BuildKnowledgeQueries(model.Preferences{Destination: "Hue", HolidayType: ht})
		found := false
		for _, q := range queries {
			if strings.Contains(q.Text, "Hue") && strings.Contains(q.Text, "food culture") {
				found = true
			}
		}
		assert.True(t, found, ht)
	}
}

func TestBuildKnowledgeQueries_BaseQueryIsTrimmed(t *testing.T) {
	queries := BuildKnowledgeQueries(model.Preferences{Destination: "Da Lat", HolidayType: "Relaxation"})
	assert.Equal(t, "Vietnam travel Da Lat Relaxation", queries[0].Text)

	queries = BuildKnowledgeQueries(model.Preferences{})
	assert.Equal(t, "Vietnam travel", queries[0].Text)
	assert.Equal(t, "Vietnam local insights", queries[1].Text)
}

func TestSufficiencyBoundary(t *testing.T) {
	assert.True(t, model.NewSufficiencySignal(500).Sufficient)
	assert.False(t, model.NewSufficiencySignal(499).Sufficient)

	prefs := model.Preferences{Destination: "Hanoi", HolidayType: "Food"}
	queries := BuildKnowledgeQueries(prefs)

	tests := []struct {
		name       string
		first      string
		second     string
		wantLen    int
		sufficient bool
	}{
		// 248 + len("\n\n") + 250 = 500
		{"exactly threshold", strings.Repeat("a", 248), strings.Repeat("b", 250), 500, true},
		{"one below", strings.Repeat("a", 247), strings.Repeat("b", 250), 499, false},
		{"single passage", strings.Repeat("a", 500), "", 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{replies: map[string]searchReply{
				queries[0].Text: {texts: []string{tt.first}},
				queries[1].Text: {texts: []string{tt.second}},
			}}
			res := NewAggregator(s, false).Gather(context.Background(), prefs)
			assert.Equal(t, tt.wantLen, res.Sufficiency.TotalLength)
			assert.Equal(t, tt.sufficient, res.Sufficiency.Sufficient)
			assert.Equal(t, tt.wantLen, len(res.Text))
		})
	}
}

func TestGather_JoinsInQueryOrderAndSkipsEmpty(t *testing.T) {
	prefs := model.Preferences{Destination: "Sapa", HolidayType: "Adventure"}
	queries := BuildKnowledgeQueries(prefs)
	s := &fakeSearcher{replies: map[string]searchReply{
		queries[0].Text: {texts: []string{"base one", "  ", "base two"}},
		queries[1].Text: {texts: []string{"trek to Cat Cat"}},
	}}

	res := NewAggregator(s, false).Gather(context.Background(), prefs)
	assert.Equal(t, "base one\n\nbase two\n\ntrek to Cat Cat", res.Text)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, queries, res.Queries)
	require.Len(t, s.calls, 2)
	assert.Equal(t, model.CategoryHiddenGems, s.calls[1].Category)
}

func TestGather_QueryFailureBecomesWarning(t *testing.T) {
	prefs := model.Preferences{Destination: "Hue", HolidayType: "Culture"}
	queries := BuildKnowledgeQueries(prefs)
	s := &fakeSearcher{replies: map[string]searchReply{
		queries[0].Text: {err: errx.Retrieval(errors.New("qdrant down"))},
		queries[1].Text: {texts: []string{"Imperial cuisine"}},
	}}

	res := NewAggregator(s, false).Gather(context.Background(), prefs)
	assert.Equal(t, "Imperial cuisine", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.StageKnowledge, res.Warnings[0].Stage)
	assert.Equal(t, errx.KindRetrieval, res.Warnings[0].Kind)
	assert.False(t, res.Sufficiency.Sufficient)
}

func TestGather_AllFailuresYieldEmptyText(t *testing.T) {
	prefs := model.Preferences{Destination: "Hue"}
	queries := BuildKnowledgeQueries(prefs)
	boom := errx.Retrieval(errors.New("unreachable"))
	s := &fakeSearcher{replies: map[string]searchReply{
		queries[0].Text: {err: boom},
		queries[1].Text: {err: boom},
	}}

	res := NewAggregator(s, false).Gather(context.Background(), prefs)
	assert.Empty(t, res.Text)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 0, res.Sufficiency.TotalLength)
}

func TestGather_ParallelKeepsQueryOrder(t *testing.T) {
	prefs := model.Preferences{Destination: "Hoi An", HolidayType: "Food"}
	queries := BuildKnowledgeQueries(prefs)
	s := &fakeSearcher{replies: map[string]searchReply{
		queries[0].Text: {texts: []string{"first"}, delay: 50 * time.Millisecond},
		queries[1].Text: {texts: []string{"second"}},
	}}

	res := NewAggregator(s, true).Gather(context.Background(), prefs)
	assert.Equal(t, "first\n\nsecond", res.Text)
}
