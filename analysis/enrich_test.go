package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/lintdock/lintdock/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	docs map[string]string
	// slow rules block until the per-item context expires.
	slow map[string]bool
}

func (f *fakeFetcher) RuleDescription(ctx context.Context, id string) ([]byte, error) {
	if f.slow[id] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(f.docs[id]), nil
}

func TestEnrichRules_FillsDescriptions(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{
		"line_length": "Lines should not span too many characters.",
		"force_cast":  "Force casts should be avoided.",
	}}
	rules := []models.Rule{
		{Identifier: "line_length"},
		{Identifier: "force_cast"},
	}

	enriched := EnrichRules(context.Background(), rules, fetcher, time.Second, 2)
	require.Len(t, enriched, 2)
	assert.Equal(t, "Lines should not span too many characters.", enriched[0].Description)
	assert.Equal(t, "Force casts should be avoided.", enriched[1].Description)
}

func TestEnrichRules_TimeoutFallsBackToUnenriched(t *testing.T) {
	fetcher := &fakeFetcher{
		docs: map[string]string{"line_length": "Lines should not span too many characters."},
		slow: map[string]bool{"todo": true},
	}
	rules := []models.Rule{
		{Identifier: "todo"},
		{Identifier: "line_length"},
	}

	start := time.Now()
	enriched := EnrichRules(context.Background(), rules, fetcher, 50*time.Millisecond, 2)
	require.Len(t, enriched, 2)

	assert.Empty(t, enriched[0].Description, "timed-out fetch degrades to the unenriched rule")
	assert.Equal(t, "todo", enriched[0].Identifier, "input order is preserved")
	assert.NotEmpty(t, enriched[1].Description, "one slow rule must not fail the batch")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEnrichRules_SkipsTableDecoration(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{
		"todo": "+------+\n| todo |\n+------+\nTODOs and FIXMEs should be resolved.\nmore text",
	}}

	enriched := EnrichRules(context.Background(), []models.Rule{{Identifier: "todo"}}, fetcher, time.Second, 1)
	require.Len(t, enriched, 1)
	assert.Equal(t, "TODOs and FIXMEs should be resolved.", enriched[0].Description)
}
