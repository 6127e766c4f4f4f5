// Package search implements the ranked prospect query path. It is a pure
// read path: no search ever mutates identity or document state.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/identity"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/store"
)

// MaxLimit is the hard ceiling on result counts.
const MaxLimit = 100

// DefaultLimit is applied by callers when the user supplies no limit.
const DefaultLimit = 20

// Query combines structured filters with an optional free-text term matched
// against company names and persisted document bodies.
type Query struct {
	CompanyName   string                 `json:"company_name,omitempty"`
	Domain        string                 `json:"domain,omitempty"`
	Statuses      []model.ProspectStatus `json:"statuses,omitempty"`
	ContentSearch string                 `json:"content_search,omitempty"`
	CreatedAfter  time.Time              `json:"created_after,omitempty"`
	Limit         int                    `json:"limit,omitempty"`
}

// Result is one ranked identity summary with its ranking signals exposed.
type Result struct {
	Identity       model.ProspectIdentity `json:"identity"`
	DomainExact    bool                   `json:"domain_exact"`
	NameMatches    int                    `json:"name_matches"`
	ContentMatches int                    `json:"content_matches"`
}

// Searcher executes ranked queries against the store.
type Searcher struct {
	store store.Store
}

// NewSearcher creates a Searcher.
func NewSearcher(st store.Store) *Searcher {
	return &Searcher{store: st}
}

// Search returns ranked results and the total match count before the limit
// was applied. A non-positive explicit limit is a validation error; limits
// above MaxLimit are clamped.
func (s *Searcher) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if q.Limit <= 0 {
		return nil, 0, eris.Wrap(model.ErrInvalidIdentifier, "search: limit must be positive")
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	domain := ""
	if q.Domain != "" {
		domain = identity.NormalizeDomain(q.Domain)
		if domain == "" {
			return nil, 0, eris.Wrap(model.ErrInvalidIdentifier, "search: bad domain filter")
		}
	}

	idents, err := s.store.ListIdentities(ctx, store.IdentityFilter{
		NameContains: q.CompanyName,
		Domain:       domain,
		Statuses:     q.Statuses,
		CreatedAfter: q.CreatedAfter,
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "search: list identities")
	}

	var contentCounts map[string]int
	if q.ContentSearch != "" {
		contentCounts, err = s.store.CountContentMatches(ctx, q.ContentSearch)
		if err != nil {
			return nil, 0, eris.Wrap(err, "search: count content matches")
		}
	}

	term := strings.ToLower(strings.TrimSpace(q.ContentSearch))
	results := make([]Result, 0, len(idents))
	for _, ident := range idents {
		r := Result{
			Identity:    ident,
			DomainExact: domain != "" && ident.Domain == domain,
		}
		if term != "" {
			r.NameMatches = strings.Count(strings.ToLower(ident.CompanyName), term)
			r.ContentMatches = contentCounts[ident.ID]
			if r.NameMatches == 0 && r.ContentMatches == 0 {
				continue
			}
		}
		results = append(results, r)
	}

	rank(results)

	total := len(results)
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, total, nil
}

// rank orders results by: exact domain match, name-substring match count,
// free-text occurrence count across documents, then most recent update.
func rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.DomainExact != b.DomainExact {
			return a.DomainExact
		}
		if a.NameMatches != b.NameMatches {
			return a.NameMatches > b.NameMatches
		}
		if a.ContentMatches != b.ContentMatches {
			return a.ContentMatches > b.ContentMatches
		}
		return a.Identity.UpdatedAt.After(b.Identity.UpdatedAt)
	})
}
