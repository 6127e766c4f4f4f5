package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
)

// Pool is the subset of pgxpool.Pool the store depends on. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	norm_name    TEXT NOT NULL,
	norm_key     TEXT NOT NULL UNIQUE,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	identity_id       TEXT NOT NULL REFERENCES prospects(id),
	kind              TEXT NOT NULL,
	template_version  TEXT NOT NULL,
	body              TEXT NOT NULL,
	generation_source TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
	generated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (identity_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_prospects_domain ON prospects(domain);
CREATE INDEX IF NOT EXISTS idx_prospects_norm_name ON prospects(norm_name);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateIdentityIfAbsent(ctx context.Context, ident *model.ProspectIdentity, normName string) (*model.ProspectIdentity, bool, error) {
	key := normKey(ident.Domain, normName)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO prospects (id, company_name, domain, norm_name, norm_key, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (norm_key) DO NOTHING`,
		ident.ID, ident.CompanyName, ident.Domain, normName, key, string(ident.Status), ident.CreatedAt, ident.UpdatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: insert prospect")
	}
	if tag.RowsAffected() > 0 {
		return ident, true, nil
	}

	existing, err := s.getIdentityWhere(ctx, "norm_key = $1", key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, eris.Errorf("postgres: prospect vanished for key %s", key)
	}
	return existing, false, nil
}

func (s *PostgresStore) GetIdentity(ctx context.Context, id string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "id = $1", id)
}

func (s *PostgresStore) GetIdentityByDomain(ctx context.Context, domain string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "domain = $1 AND domain != '' AND status != 'failed'", domain)
}

func (s *PostgresStore) GetIdentityByName(ctx context.Context, normName string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "norm_name = $1 AND status != 'failed'", normName)
}

func (s *PostgresStore) getIdentityWhere(ctx context.Context, where string, args ...any) (*model.ProspectIdentity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_name, domain, status, created_at, updated_at FROM prospects WHERE `+where+` LIMIT 1`,
		args...,
	)

	var p model.ProspectIdentity
	err := row.Scan(&p.ID, &p.CompanyName, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan prospect")
	}
	return &p, nil
}

func (s *PostgresStore) AdvanceIdentityStatus(ctx context.Context, id string, status model.ProspectStatus) error {
	cur, err := s.GetIdentity(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return eris.Wrapf(model.ErrNotFound, "prospect %s", id)
	}

	next := cur.Status
	if model.CanTransition(cur.Status, status) {
		next = status
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE prospects SET status = $1, updated_at = $2 WHERE id = $3`,
		string(next), time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "postgres: update prospect status %s", id)
}

func (s *PostgresStore) ListIdentities(ctx context.Context, filter IdentityFilter) ([]model.ProspectIdentity, error) {
	query := `SELECT id, company_name, domain, status, created_at, updated_at FROM prospects WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.NameContains != "" {
		query += ` AND company_name ILIKE ` + arg("%"+filter.NameContains+"%")
	}
	if filter.Domain != "" {
		query += ` AND domain = ` + arg(filter.Domain)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = arg(string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ` + arg(filter.CreatedAfter)
	}
	query += ` ORDER BY updated_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var idents []model.ProspectIdentity
	for rows.Next() {
		var p model.ProspectIdentity
		if err := rows.Scan(&p.ID, &p.CompanyName, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		idents = append(idents, p)
	}
	return idents, eris.Wrap(rows.Err(), "postgres: list prospects iterate")
}

func (s *PostgresStore) WriteDocument(ctx context.Context, doc *model.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (identity_id, kind, template_version, body, generation_source, confidence, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (identity_id, kind) DO UPDATE SET
			template_version = EXCLUDED.template_version,
			body = EXCLUDED.body,
			generation_source = EXCLUDED.generation_source,
			confidence = EXCLUDED.confidence,
			generated_at = EXCLUDED.generated_at`,
		doc.IdentityID, string(doc.Kind), doc.TemplateVersion, doc.Body, string(doc.GenerationSource), doc.Confidence, doc.GeneratedAt,
	)
	return eris.Wrapf(err, "postgres: write document %s/%s", doc.IdentityID, doc.Kind)
}

func (s *PostgresStore) ReadDocument(ctx context.Context, identityID string, kind model.DocumentKind) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT identity_id, kind, template_version, body, generation_source, confidence, generated_at
		 FROM documents WHERE identity_id = $1 AND kind = $2`,
		identityID, string(kind),
	)

	var d model.Document
	err := row.Scan(&d.IdentityID, &d.Kind, &d.TemplateVersion, &d.Body, &d.GenerationSource, &d.Confidence, &d.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}
	return &d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, identityID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT identity_id, kind, template_version, body, generation_source, confidence, generated_at
		 FROM documents WHERE identity_id = $1 ORDER BY kind`,
		identityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.IdentityID, &d.Kind, &d.TemplateVersion, &d.Body, &d.GenerationSource, &d.Confidence, &d.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) CountContentMatches(ctx context.Context, term string) (map[string]int, error) {
	if term == "" {
		return map[string]int{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT identity_id, body FROM documents WHERE body ILIKE $1`,
		"%"+term+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: content search")
	}
	defer rows.Close()

	counts := make(map[string]int)
	lower := strings.ToLower(term)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan content match")
		}
		counts[id] += strings.Count(strings.ToLower(body), lower)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: content search iterate")
}
