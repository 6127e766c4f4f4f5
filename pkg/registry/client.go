// Package registry queries a mirrored government business-registry database
// for corporate filing records.
package registry

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Config configures the registry lookup client.
type Config struct {
	URL           string `mapstructure:"url"`
	MaxCandidates int    `mapstructure:"max_candidates"`
}

// Filing represents a matched registry filing record.
type Filing struct {
	FilingNumber  string  `json:"filing_number"`
	LegalName     string  `json:"legal_name"`
	Jurisdiction  string  `json:"jurisdiction"`
	EntityType    string  `json:"entity_type"`
	Status        string  `json:"status"`
	RegisteredOn  string  `json:"registered_on"`
	AgentName     string  `json:"agent_name"`
	PrincipalCity string  `json:"principal_city"`
	MatchTier     int     `json:"match_tier"`
	MatchScore    float64 `json:"match_score"`
}

// Querier abstracts registry lookups for testing.
type Querier interface {
	FindFilings(ctx context.Context, name string) ([]Filing, error)
	Close()
}

// pool defines the minimal database pool interface used by Client.
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Client queries the registry filings database.
type Client struct {
	pool pool
	cfg  Config
}

// Ensure Client implements Querier.
var _ Querier = (*Client)(nil)

// New creates a registry client connected to the filings database.
func New(ctx context.Context, cfg Config) (*Client, error) {
	p, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "registry: connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "registry: ping")
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 10
	}
	return &Client{pool: p, cfg: cfg}, nil
}

// Close releases the connection pool.
func (c *Client) Close() { c.pool.Close() }

// FindFilings tries 3 match tiers in order, returning on the first
// non-empty result: exact name, suffix-normalized name, trigram fuzzy.
func (c *Client) FindFilings(ctx context.Context, name string) ([]Filing, error) {
	upperName := strings.ToUpper(strings.TrimSpace(name))

	matches, err := c.queryTier1(ctx, upperName)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}

	matches, err = c.queryTier2(ctx, upperName)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}

	return c.queryTier3(ctx, upperName)
}

const tier1SQL = `
SELECT filing_number, legal_name, jurisdiction, entity_type, status,
       to_char(registered_on, 'YYYY-MM-DD'), agent_name, principal_city
FROM registry.filings
WHERE UPPER(TRIM(legal_name)) = $1
ORDER BY registered_on DESC`

func (c *Client) queryTier1(ctx context.Context, upperName string) ([]Filing, error) {
	rows, err := c.pool.Query(ctx, tier1SQL, upperName)
	if err != nil {
		return nil, eris.Wrap(err, "registry: tier1 query")
	}
	defer rows.Close()

	return scanFilings(rows, 1, 1.0)
}

const tier2SQL = `
SELECT filing_number, legal_name, jurisdiction, entity_type, status,
       to_char(registered_on, 'YYYY-MM-DD'), agent_name, principal_city
FROM registry.filings
WHERE UPPER(REGEXP_REPLACE(TRIM(legal_name),
    '\s*,?\s*(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|L\.?L\.?P\.?|PLLC|P\.?L\.?L\.?C\.?|P\.?C\.?|DBA|D/B/A)\s*\.?\s*$',
    '', 'i')) = UPPER(REGEXP_REPLACE(TRIM($1::text),
    '\s*,?\s*(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|L\.?L\.?P\.?|PLLC|P\.?L\.?L\.?C\.?|P\.?C\.?|DBA|D/B/A)\s*\.?\s*$',
    '', 'i'))
ORDER BY registered_on DESC`

func (c *Client) queryTier2(ctx context.Context, upperName string) ([]Filing, error) {
	rows, err := c.pool.Query(ctx, tier2SQL, upperName)
	if err != nil {
		return nil, eris.Wrap(err, "registry: tier2 query")
	}
	defer rows.Close()

	return scanFilings(rows, 2, 0.8)
}

const tier3SQL = `
SELECT filing_number, legal_name, jurisdiction, entity_type, status,
       to_char(registered_on, 'YYYY-MM-DD'), agent_name, principal_city,
       similarity(UPPER(legal_name), $1) AS sim_score
FROM registry.filings
WHERE legal_name %% $1
ORDER BY sim_score DESC
LIMIT $2`

func (c *Client) queryTier3(ctx context.Context, upperName string) ([]Filing, error) {
	rows, err := c.pool.Query(ctx, tier3SQL, upperName, c.cfg.MaxCandidates)
	if err != nil {
		return nil, eris.Wrap(err, "registry: tier3 query")
	}
	defer rows.Close()

	var matches []Filing
	for rows.Next() {
		var f Filing
		var simScore float64
		err := rows.Scan(
			&f.FilingNumber, &f.LegalName, &f.Jurisdiction, &f.EntityType,
			&f.Status, &f.RegisteredOn, &f.AgentName, &f.PrincipalCity, &simScore,
		)
		if err != nil {
			return nil, eris.Wrap(err, "registry: scan tier3 row")
		}
		f.MatchTier = 3
		f.MatchScore = simScore
		matches = append(matches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "registry: rows iteration")
	}
	return matches, nil
}

func scanFilings(rows pgx.Rows, tier int, score float64) ([]Filing, error) {
	var matches []Filing
	for rows.Next() {
		var f Filing
		err := rows.Scan(
			&f.FilingNumber, &f.LegalName, &f.Jurisdiction, &f.EntityType,
			&f.Status, &f.RegisteredOn, &f.AgentName, &f.PrincipalCity,
		)
		if err != nil {
			return nil, eris.Wrap(err, "registry: scan row")
		}
		f.MatchTier = tier
		f.MatchScore = score
		matches = append(matches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "registry: rows iteration")
	}
	return matches, nil
}
