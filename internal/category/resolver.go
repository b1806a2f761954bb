// Package category infers a transaction's category and tag from its
// description: stored mappings first, the model as a last resort.
package category

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// Classifier is the external model fallback. Implemented by internal/ai;
// mocked in tests.
type Classifier interface {
	// ClassifyDescription returns a category from the closed set and an
	// optional tag for the given transaction description.
	ClassifyDescription(ctx context.Context, description string) (category, tag string, err error)
}

// Resolver resolves {category, tag} for a description. Resolution order:
// exact mapping match, any-token mapping match, then the classifier.
// Results are never persisted here; only the category wizard writes the
// mapping table.
type Resolver struct {
	mappings   *MappingTable
	classifier Classifier // nil disables the model fallback
	log        zerolog.Logger
}

// NewResolver creates a Resolver. classifier may be nil, in which case
// unresolved descriptions stay "Not Found".
func NewResolver(mappings *MappingTable, classifier Classifier, log zerolog.Logger) *Resolver {
	return &Resolver{mappings: mappings, classifier: classifier, log: log}
}

// Resolve runs the full resolution chain. It never fails: mapping-table
// errors and classifier errors degrade to the Not Found sentinel.
func (r *Resolver) Resolve(ctx context.Context, description string) (string, string) {
	if cat, tag, ok := r.fromMappings(ctx, description); ok {
		return cat, tag
	}

	if r.classifier == nil {
		return domain.CategoryNotFound, ""
	}

	cat, tag, err := r.classifier.ClassifyDescription(ctx, description)
	if err != nil {
		r.log.Warn().Err(err).Str("description", description).Msg("Classifier fallback failed")
		return domain.CategoryNotFound, ""
	}

	// The model is prompted with the closed set but can still drift; an
	// unknown label is coerced rather than trusted.
	if !domain.IsValidCategory(cat) {
		r.log.Warn().Str("category", cat).Str("description", description).Msg("Classifier returned unknown category")
		return domain.CategoryNotFound, ""
	}
	return cat, tag
}

// ResolveFromStore consults only the mapping table. Used by wizard drafts,
// which must render a prediction without a network call. matched reports
// whether any mapping applied; when false the category is Uncategorized.
func (r *Resolver) ResolveFromStore(ctx context.Context, description string) (category, tag string, matched bool) {
	if cat, t, ok := r.fromMappings(ctx, description); ok {
		return cat, t, true
	}
	return domain.CategoryUncategorized, "", false
}

func (r *Resolver) fromMappings(ctx context.Context, description string) (string, string, bool) {
	if strings.TrimSpace(description) == "" {
		return "", "", false
	}

	exact, err := r.mappings.Lookup(ctx, description)
	if err != nil {
		r.log.Warn().Err(err).Msg("Mapping lookup failed")
		return "", "", false
	}
	if exact != nil {
		return exact.Category, exact.Tag, true
	}

	pattern, err := anyTokenPattern(description)
	if err != nil {
		return "", "", false
	}

	all, err := r.mappings.All(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("Mapping scan failed")
		return "", "", false
	}
	for _, m := range all {
		if pattern.MatchString(m.Description) {
			return m.Category, m.Tag, true
		}
	}
	return "", "", false
}

// anyTokenPattern builds a case-insensitive pattern matching any whitespace
// token of the description.
func anyTokenPattern(description string) (*regexp.Regexp, error) {
	tokens := strings.Fields(description)
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return regexp.Compile("(?i)" + strings.Join(quoted, "|"))
}
