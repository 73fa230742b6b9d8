package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
)

const tracerName = "github.com/0xcro3dile/latentqa-go/usecases"

// Fixed probe texts for the category lookups.
const (
	showOverviewProbe = "Show Overview"
	faqProbe          = "FAQ"
)

var (
	showKeywords = []string{"show", "how many episodes", "overview", "format"}
	faqKeywords  = []string{"faq", "where was it", "return", "scripted"}
)

// Retrieve assembles the ordered passage list for a query.
//
// Lookups run in a fixed order: show overview, FAQ, then the referenced
// episode. The raw query is used as a fallback probe only when none of those
// fired. Results are concatenated as returned, so a document found by two
// lookups appears twice.
//
// episode is the number the classifier extracted, if any. The probe is always
// derived from the query itself, so a show-overview or FAQ intent that also
// names an episode still gets the episode lookup.
func Retrieve(ctx context.Context, index ports.SimilarityIndex, query string, topK int, episode string) ([]entities.Document, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "usecases.Retrieve",
		trace.WithAttributes(
			attribute.Int("retrieval.top_k", topK),
			attribute.String("retrieval.episode", episode),
		))
	defer span.End()

	q := strings.ToLower(query)
	var results []entities.Document

	lookup := func(probe string) error {
		docs, err := index.Lookup(ctx, probe, topK)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("lookup %q: %w", probe, err)
		}
		results = append(results, docs...)
		return nil
	}

	if containsAny(q, showKeywords) {
		if err := lookup(showOverviewProbe); err != nil {
			return nil, err
		}
	}
	if containsAny(q, faqKeywords) {
		if err := lookup(faqProbe); err != nil {
			return nil, err
		}
	}
	if label, number, ok := matchEpisode(q); ok {
		if err := lookup(label + " " + number); err != nil {
			return nil, err
		}
	}
	if len(results) == 0 {
		if err := lookup(query); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("retrieval.documents", len(results)))
	slog.DebugContext(ctx, "retrieved documents", "count", len(results), "episode", episode)
	return results, nil
}

// Dedupe drops repeated documents, keeping the first occurrence.
// Documents are keyed by ID, falling back to content for unidentified ones.
func Dedupe(docs []entities.Document) []entities.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]entities.Document, 0, len(docs))
	for _, d := range docs {
		key := d.ID
		if key == "" {
			key = "content:" + d.Content
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
