package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/lintdock/lintdock/models"
	"golang.org/x/sync/errgroup"
)

// DefaultEnrichTimeout bounds each per-rule detail fetch.
const DefaultEnrichTimeout = 5 * time.Second

// DefaultEnrichWorkers bounds how many detail fetches run concurrently.
const DefaultEnrichWorkers = 4

// RuleDetailFetcher fetches the documentation payload for a single rule.
type RuleDetailFetcher interface {
	RuleDescription(ctx context.Context, id string) ([]byte, error)
}

// EnrichRules fills in each rule's description by fetching its detail doc
// concurrently. Each fetch races a per-item timeout; a slow or failing fetch
// degrades to the unenriched rule instead of failing the batch. The returned
// slice preserves input order.
func EnrichRules(ctx context.Context, rules []models.Rule, fetcher RuleDetailFetcher, perItemTimeout time.Duration, workers int) []models.Rule {
	if perItemTimeout <= 0 {
		perItemTimeout = DefaultEnrichTimeout
	}
	if workers <= 0 {
		workers = DefaultEnrichWorkers
	}

	enriched := make([]models.Rule, len(rules))
	copy(enriched, rules)

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range enriched {
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(ctx, perItemTimeout)
			defer cancel()

			raw, err := fetcher.RuleDescription(itemCtx, enriched[i].Identifier)
			if err != nil {
				logger.Debugf("Rule detail fetch for %s fell back to unenriched: %v", enriched[i].Identifier, err)
				return nil
			}

			if desc := firstParagraph(string(raw)); desc != "" {
				enriched[i].Description = desc
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; fallback is per-item

	return enriched
}

// firstParagraph extracts the leading prose paragraph from a rule doc,
// skipping table decoration that `swiftlint rules <id>` prints around it.
func firstParagraph(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "+") || strings.HasPrefix(line, "|") {
			continue
		}
		return line
	}
	return ""
}
