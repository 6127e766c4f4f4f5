// Package store persists prospect identities and generated documents.
package store

import (
	"context"
	"time"

	"github.com/sells-group/prospector/internal/model"
)

// IdentityFilter specifies criteria for listing identities. A non-positive
// Limit returns every matching row; ranked callers fetch the full candidate
// set and page the results themselves.
type IdentityFilter struct {
	NameContains string                 `json:"name_contains,omitempty"`
	Domain       string                 `json:"domain,omitempty"`
	Statuses     []model.ProspectStatus `json:"statuses,omitempty"`
	CreatedAfter time.Time              `json:"created_after,omitempty"`
	Limit        int                    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the research pipeline.
// Identity creation is the only operation requiring mutual exclusion; document
// writes are full atomic replacements keyed by (identity_id, kind).
type Store interface {
	// Identities
	//
	// CreateIdentityIfAbsent inserts ident unless another identity already
	// holds the same normalized key, in which case the existing identity is
	// returned (first writer wins). The boolean reports whether ident was
	// newly created. normName is the normalized company name used for
	// name-based lookup and for uniqueness when domain is absent.
	CreateIdentityIfAbsent(ctx context.Context, ident *model.ProspectIdentity, normName string) (*model.ProspectIdentity, bool, error)
	GetIdentity(ctx context.Context, id string) (*model.ProspectIdentity, error)
	GetIdentityByDomain(ctx context.Context, domain string) (*model.ProspectIdentity, error)
	GetIdentityByName(ctx context.Context, normName string) (*model.ProspectIdentity, error)
	// AdvanceIdentityStatus moves the identity forward to status if that is a
	// legal transition, and refreshes updated_at either way. Downgrades are
	// silently ignored so re-running an earlier stage never regresses state.
	AdvanceIdentityStatus(ctx context.Context, id string, status model.ProspectStatus) error
	ListIdentities(ctx context.Context, filter IdentityFilter) ([]model.ProspectIdentity, error)

	// Documents
	WriteDocument(ctx context.Context, doc *model.Document) error
	ReadDocument(ctx context.Context, identityID string, kind model.DocumentKind) (*model.Document, error)
	ListDocuments(ctx context.Context, identityID string) ([]model.Document, error)
	// CountContentMatches returns, per identity, how many times term occurs
	// across that identity's document bodies (case-insensitive).
	CountContentMatches(ctx context.Context, term string) (map[string]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// normKey derives the uniqueness key for an identity: the normalized domain
// when present, otherwise the normalized company name.
func normKey(domain, normName string) string {
	if domain != "" {
		return domain
	}
	return "name:" + normName
}
