package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

func TestBuildWebQueries(t *testing.T) {
	queries := BuildWebQueries(model.Preferences{Destination: "Hanoi", HolidayType: "Food", Comments: "street food"})
	assert.Equal(t, []string{
		"Hanoi hidden gems Food street food",
		"Hanoi local food culture Hanoi",
		"Hanoi off the beaten path attractions Hanoi",
	}, queries)

	queries = BuildWebQueries(model.Preferences{Destination: "Hue"})
	assert.Equal(t, "Hue hidden gems", queries[0])
}

func TestSearchSupplemental_PartialFailure(t *testing.T) {
	prefs := model.Preferences{Destination: "Hanoi", HolidayType: "Food"}
	queries := BuildWebQueries(prefs)
	p := &fakeProvider{replies: map[string]providerReply{
		queries[0]: {items: []any{
			item("A", "a content", "https://a.example"),
			item("B", "b content", "https://b.example"),
		}},
		queries[1]: {err: errx.SearchProvider(errors.New("rate limited"))},
		queries[2]: {items: []any{
			item("C", "c content", "https://c.example"),
			item("D", "d content", "https://d.example"),
			item("E", "e content", "https://e.example"),
		}},
	}}

	res := NewWebSearcher(p, 5, time.Second, false).SearchSupplemental(context.Background(), prefs)

	assert.True(t, res.Performed)
	assert.Equal(t, 5, res.ResultCount)
	assert.Equal(t,
		"**A**\na content\nSource: https://a.example\n\n"+
			"**B**\nb content\nSource: https://b.example\n\n"+
			"**C**\nc content\nSource: https://c.example\n\n"+
			"**D**\nd content\nSource: https://d.example\n\n"+
			"**E**\ne content\nSource: https://e.example\n",
		res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.StageWebSearch, res.Warnings[0].Stage)
	assert.Equal(t, errx.KindSearchProvider, res.Warnings[0].Kind)
	assert.Equal(t, queries, p.queries)
}

func TestSearchSupplemental_SkipsNonObjectsButCountsThem(t *testing.T) {
	prefs := model.Preferences{Destination: "Hue"}
	queries := BuildWebQueries(prefs)
	p := &fakeProvider{replies: map[string]providerReply{
		queries[0]: {items: []any{"junk", map[string]any{"snippet": "Citadel walls", "link": "https://hue.example"}}},
	}}

	res := NewWebSearcher(p, 5, 0, false).SearchSupplemental(context.Background(), prefs)
	assert.Equal(t, 2, res.ResultCount)
	assert.Equal(t, "**No title**\nCitadel walls\nSource: https://hue.example\n", res.Text)
	assert.Empty(t, res.Warnings)
}

func TestSearchSupplemental_AllFail(t *testing.T) {
	prefs := model.Preferences{Destination: "Hue"}
	queries := BuildWebQueries(prefs)
	boom := errx.SearchProvider(errors.New("down"))
	p := &fakeProvider{replies: map[string]providerReply{
		queries[0]: {err: boom}, queries[1]: {err: boom}, queries[2]: {err: boom},
	}}

	res := NewWebSearcher(p, 5, 0, false).SearchSupplemental(context.Background(), prefs)
	assert.True(t, res.Performed)
	assert.Zero(t, res.ResultCount)
	assert.Empty(t, res.Text)
	assert.Len(t, res.Warnings, 3)
}

func TestSearchSupplemental_ParallelKeepsQueryOrder(t *testing.T) {
	prefs := model.Preferences{Destination: "Hanoi"}
	queries := BuildWebQueries(prefs)
	p := &fakeProvider{replies: map[string]providerReply{
		queries[0]: {items: []any{item("first", "", "")}, delay: 50 * time.Millisecond},
		queries[1]: {err: errx.SearchProvider(errors.New("boom"))},
		queries[2]: {items: []any{item("third", "", "")}},
	}}

	res := NewWebSearcher(p, 5, time.Second, true).SearchSupplemental(context.Background(), prefs)
	assert.Equal(t, "**first**\n\nSource: \n\n**third**\n\nSource: \n", res.Text)
	assert.Equal(t, 2, res.ResultCount)
	assert.Len(t, res.Warnings, 1)
}

func TestSearchSupplemental_TimeoutIsWarning(t *testing.T) {
	prefs := model.Preferences{Destination: "Hue", HolidayType: "Culture"}
	queries := BuildWebQueries(prefs)
	p := &fakeProvider{replies: map[string]providerReply{
		queries[0]: {items: []any{item("Citadel", "c", "https://c.example")}, delay: 2 * time.Second},
		queries[1]: {items: []any{item("Bun bo", "b", "https://b.example")}},
		queries[2]: {items: []any{item("Tombs", "t", "https://t.example")}, delay: 2 * time.Second},
	}}

	start := time.Now()
	res := NewWebSearcher(p, 5, 50*time.Millisecond, false).SearchSupplemental(context.Background(), prefs)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Performed)
	assert.Equal(t, 1, res.ResultCount)
	assert.Equal(t, "**Bun bo**\nb\nSource: https://b.example\n", res.Text)
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.Equal(t, errx.KindSearchProvider, w.Kind)
		assert.Contains(t, w.Message, context.DeadlineExceeded.Error())
	}
}
