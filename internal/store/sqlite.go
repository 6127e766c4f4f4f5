package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	norm_name  TEXT NOT NULL,
	norm_key   TEXT NOT NULL UNIQUE,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	identity_id       TEXT NOT NULL REFERENCES prospects(id),
	kind              TEXT NOT NULL,
	template_version  TEXT NOT NULL,
	body              TEXT NOT NULL,
	generation_source TEXT NOT NULL,
	confidence        REAL NOT NULL DEFAULT 0,
	generated_at      DATETIME NOT NULL,
	PRIMARY KEY (identity_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_prospects_domain ON prospects(domain);
CREATE INDEX IF NOT EXISTS idx_prospects_norm_name ON prospects(norm_name);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateIdentityIfAbsent(ctx context.Context, ident *model.ProspectIdentity, normName string) (*model.ProspectIdentity, bool, error) {
	key := normKey(ident.Domain, normName)

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO prospects (id, company_name, domain, norm_name, norm_key, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ident.ID, ident.CompanyName, ident.Domain, normName, key, string(ident.Status), ident.CreatedAt, ident.UpdatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: insert prospect")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return ident, true, nil
	}

	// Lost the race or the identity already existed; return the winner.
	existing, err := s.getIdentityWhere(ctx, "norm_key = ?", key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, eris.Errorf("sqlite: prospect vanished for key %s", key)
	}
	return existing, false, nil
}

func (s *SQLiteStore) GetIdentity(ctx context.Context, id string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetIdentityByDomain(ctx context.Context, domain string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "domain = ? AND domain != '' AND status != 'failed'", domain)
}

func (s *SQLiteStore) GetIdentityByName(ctx context.Context, normName string) (*model.ProspectIdentity, error) {
	return s.getIdentityWhere(ctx, "norm_name = ? AND status != 'failed'", normName)
}

func (s *SQLiteStore) getIdentityWhere(ctx context.Context, where string, args ...any) (*model.ProspectIdentity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, domain, status, created_at, updated_at FROM prospects WHERE `+where+` LIMIT 1`,
		args...,
	)

	var p model.ProspectIdentity
	err := row.Scan(&p.ID, &p.CompanyName, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prospect")
	}
	return &p, nil
}

func (s *SQLiteStore) AdvanceIdentityStatus(ctx context.Context, id string, status model.ProspectStatus) error {
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

	_, err = s.db.ExecContext(ctx,
		`UPDATE prospects SET status = ?, updated_at = ? WHERE id = ?`,
		string(next), time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "sqlite: update prospect status %s", id)
}

func (s *SQLiteStore) ListIdentities(ctx context.Context, filter IdentityFilter) ([]model.ProspectIdentity, error) {
	query := `SELECT id, company_name, domain, status, created_at, updated_at FROM prospects WHERE 1=1`
	var args []any

	if filter.NameContains != "" {
		query += ` AND company_name LIKE ?`
		args = append(args, "%"+filter.NameContains+"%")
	}
	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, filter.Domain)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(filter.Statuses)-1) + `)`
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter)
	}
	query += ` ORDER BY updated_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close()

	var idents []model.ProspectIdentity
	for rows.Next() {
		var p model.ProspectIdentity
		if err := rows.Scan(&p.ID, &p.CompanyName, &p.Domain, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prospect")
		}
		idents = append(idents, p)
	}
	return idents, eris.Wrap(rows.Err(), "sqlite: list prospects iterate")
}

func (s *SQLiteStore) WriteDocument(ctx context.Context, doc *model.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (identity_id, kind, template_version, body, generation_source, confidence, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (identity_id, kind) DO UPDATE SET
			template_version = excluded.template_version,
			body = excluded.body,
			generation_source = excluded.generation_source,
			confidence = excluded.confidence,
			generated_at = excluded.generated_at`,
		doc.IdentityID, string(doc.Kind), doc.TemplateVersion, doc.Body, string(doc.GenerationSource), doc.Confidence, doc.GeneratedAt,
	)
	return eris.Wrapf(err, "sqlite: write document %s/%s", doc.IdentityID, doc.Kind)
}

func (s *SQLiteStore) ReadDocument(ctx context.Context, identityID string, kind model.DocumentKind) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT identity_id, kind, template_version, body, generation_source, confidence, generated_at
		 FROM documents WHERE identity_id = ? AND kind = ?`,
		identityID, string(kind),
	)
	return scanDocument(row)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, identityID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_id, kind, template_version, body, generation_source, confidence, generated_at
		 FROM documents WHERE identity_id = ? ORDER BY kind`,
		identityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) CountContentMatches(ctx context.Context, term string) (map[string]int, error) {
	if term == "" {
		return map[string]int{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_id, body FROM documents WHERE body LIKE ?`,
		"%"+term+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: content search")
	}
	defer rows.Close()

	counts := make(map[string]int)
	lower := strings.ToLower(term)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan content match")
		}
		counts[id] += strings.Count(strings.ToLower(body), lower)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: content search iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.IdentityID, &d.Kind, &d.TemplateVersion, &d.Body, &d.GenerationSource, &d.Confidence, &d.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}
	return &d, nil
}
