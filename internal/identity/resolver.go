// Package identity resolves caller-supplied identifiers to stable prospect
// identities, deduplicating by normalized domain and company name.
package identity

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/store"
)

// suffixPattern matches common business entity suffixes for name normalization.
var suffixPattern = regexp.MustCompile(`(?i),?\s*(inc\.?|llc\.?|ltd\.?|co\.?|corp\.?|corporation|company|llp|lp|pllc|pc|p\.?c\.?)$`)

// foldDiacritics strips combining marks so "Café" and "Cafe" normalize alike.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Resolver owns the prospect identity lifecycle.
type Resolver struct {
	store store.Store
}

// NewResolver creates an identity resolver backed by the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve looks up an existing identity by normalized domain, then by
// normalized name, creating a new pending identity when neither matches.
// Lookups leave updated_at untouched. Concurrent resolution for the same
// normalized key returns the first successfully created identity.
// Returns the identity and whether it was newly created.
func (r *Resolver) Resolve(ctx context.Context, ref model.Identifier) (*model.ProspectIdentity, bool, error) {
	domain := NormalizeDomain(ref.Domain)
	name := strings.TrimSpace(ref.CompanyName)
	normName := NormalizeName(name)

	if domain == "" && ref.Domain != "" && name == "" {
		// A domain was supplied but nothing usable survived normalization.
		return nil, false, eris.Wrapf(model.ErrInvalidIdentifier, "no usable domain in %q", ref.Domain)
	}
	if domain == "" && normName == "" {
		return nil, false, eris.Wrap(model.ErrInvalidIdentifier, "identifier needs a domain or company name")
	}

	if domain != "" {
		existing, err := r.store.GetIdentityByDomain(ctx, domain)
		if err != nil {
			return nil, false, eris.Wrap(err, "identity: lookup by domain")
		}
		if existing != nil {
			zap.L().Debug("identity: matched by domain",
				zap.String("domain", domain),
				zap.String("identity_id", existing.ID),
			)
			return existing, false, nil
		}
	}

	if normName != "" {
		existing, err := r.store.GetIdentityByName(ctx, normName)
		if err != nil {
			return nil, false, eris.Wrap(err, "identity: lookup by name")
		}
		if existing != nil {
			zap.L().Debug("identity: matched by name",
				zap.String("name", name),
				zap.String("identity_id", existing.ID),
			)
			return existing, false, nil
		}
	}

	if name == "" {
		name = domain
		normName = NormalizeName(domain)
	}

	now := time.Now().UTC()
	ident := &model.ProspectIdentity{
		ID:          uuid.New().String(),
		CompanyName: name,
		Domain:      domain,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	winner, created, err := r.store.CreateIdentityIfAbsent(ctx, ident, normName)
	if err != nil {
		return nil, false, eris.Wrap(err, "identity: create")
	}

	if created {
		zap.L().Info("identity: created new prospect",
			zap.String("identity_id", winner.ID),
			zap.String("domain", domain),
			zap.String("name", name),
		)
	}
	return winner, created, nil
}

// ParseIdentifier interprets a raw CLI token as either a domain-like string or
// a free-text company name.
func ParseIdentifier(raw string) model.Identifier {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ".") && !strings.Contains(raw, " ") {
		return model.Identifier{Domain: raw}
	}
	return model.Identifier{CompanyName: raw}
}

// NormalizeDomain reduces a URL or bare hostname to a lowercase hostname with
// no protocol, path, port, or leading www prefix. Returns "" when no usable
// hostname remains.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	if strings.Contains(d, "://") {
		if parsed, err := url.Parse(d); err == nil && parsed.Host != "" {
			d = parsed.Host
		}
	}
	// Strip path, query, and port leftovers from bare inputs like
	// "www.acme.com/about" or "acme.com:8080".
	for _, sep := range []string{"/", "?", "#", ":"} {
		if idx := strings.Index(d, sep); idx >= 0 {
			d = d[:idx]
		}
	}
	d = strings.TrimPrefix(d, "www.")
	if !strings.Contains(d, ".") {
		return ""
	}
	return d
}

// NormalizeName lowercases a company name, folds diacritics, strips business
// suffixes, and collapses whitespace.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}
	name = suffixPattern.ReplaceAllString(name, "")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), " ")
}
