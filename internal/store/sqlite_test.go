package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "store_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newIdentity(name, domain string) *model.ProspectIdentity {
	now := time.Now().UTC()
	return &model.ProspectIdentity{
		ID:          uuid.NewString(),
		CompanyName: name,
		Domain:      domain,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateIdentityIfAbsentFirstWriterWins(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	first := newIdentity("Acme Corp", "acme.com")
	won, created, err := st.CreateIdentityIfAbsent(ctx, first, "acme")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, won.ID)

	// Same normalized key, different candidate ID.
	second := newIdentity("ACME Corporation", "acme.com")
	won, created, err = st.CreateIdentityIfAbsent(ctx, second, "acme")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, won.ID)
}

func TestCreateIdentityNameKeyWhenDomainAbsent(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	first := newIdentity("Veil Partners", "")
	_, created, err := st.CreateIdentityIfAbsent(ctx, first, "veil partners")
	require.NoError(t, err)
	require.True(t, created)

	dup := newIdentity("Veil Partners LLC", "")
	won, created, err := st.CreateIdentityIfAbsent(ctx, dup, "veil partners")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, won.ID)

	found, err := st.GetIdentityByName(ctx, "veil partners")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestGetIdentityByDomainIgnoresEmptyDomain(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	_, _, err := st.CreateIdentityIfAbsent(ctx, newIdentity("No Domain Co", ""), "no domain co")
	require.NoError(t, err)

	found, err := st.GetIdentityByDomain(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAdvanceIdentityStatusNeverDowngrades(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	ident := newIdentity("Acme Corp", "acme.com")
	_, _, err := st.CreateIdentityIfAbsent(ctx, ident, "acme")
	require.NoError(t, err)

	require.NoError(t, st.AdvanceIdentityStatus(ctx, ident.ID, model.StatusResearched))
	require.NoError(t, st.AdvanceIdentityStatus(ctx, ident.ID, model.StatusProfiled))

	// A later research pass reports researched again; profiled must hold.
	require.NoError(t, st.AdvanceIdentityStatus(ctx, ident.ID, model.StatusResearched))

	cur, err := st.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProfiled, cur.Status)
}

func TestAdvanceIdentityStatusUnknownIdentity(t *testing.T) {
	st := newSQLite(t)

	err := st.AdvanceIdentityStatus(context.Background(), "missing", model.StatusResearched)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestWriteDocumentReplacesAtomically(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	ident := newIdentity("Acme Corp", "acme.com")
	_, _, err := st.CreateIdentityIfAbsent(ctx, ident, "acme")
	require.NoError(t, err)

	doc := &model.Document{
		IdentityID:       ident.ID,
		Kind:             model.KindReport,
		TemplateVersion:  "v1",
		Body:             "first body",
		GenerationSource: model.GeneratedFallback,
		Confidence:       0.25,
		GeneratedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.WriteDocument(ctx, doc))

	doc.Body = "second body"
	doc.GenerationSource = model.GeneratedEnhanced
	doc.Confidence = 0.75
	require.NoError(t, st.WriteDocument(ctx, doc))

	got, err := st.ReadDocument(ctx, ident.ID, model.KindReport)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second body", got.Body)
	assert.Equal(t, model.GeneratedEnhanced, got.GenerationSource)
	assert.InDelta(t, 0.75, got.Confidence, 0.0001)

	docs, err := st.ListDocuments(ctx, ident.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestReadDocumentMissing(t *testing.T) {
	st := newSQLite(t)

	got, err := st.ReadDocument(context.Background(), "missing", model.KindProfile)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCountContentMatches(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	a := newIdentity("Acme Corp", "acme.com")
	b := newIdentity("Veil Partners", "veil.example")
	for _, ident := range []*model.ProspectIdentity{a, b} {
		_, _, err := st.CreateIdentityIfAbsent(ctx, ident, ident.CompanyName)
		require.NoError(t, err)
	}

	write := func(id string, kind model.DocumentKind, body string) {
		t.Helper()
		require.NoError(t, st.WriteDocument(ctx, &model.Document{
			IdentityID:       id,
			Kind:             kind,
			TemplateVersion:  "v1",
			Body:             body,
			GenerationSource: model.GeneratedFallback,
			GeneratedAt:      time.Now().UTC(),
		}))
	}
	write(a.ID, model.KindReport, "Kubernetes here, Kubernetes there")
	write(a.ID, model.KindProfile, "also kubernetes")
	write(b.ID, model.KindReport, "no container talk")

	counts, err := st.CountContentMatches(ctx, "kubernetes")
	require.NoError(t, err)
	assert.Equal(t, 3, counts[a.ID])
	assert.Zero(t, counts[b.ID])

	counts, err = st.CountContentMatches(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestListIdentitiesFilters(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	a := newIdentity("Acme Corp", "acme.com")
	b := newIdentity("Acme Industries", "acme-industries.com")
	c := newIdentity("Veil Partners", "veil.example")
	for _, ident := range []*model.ProspectIdentity{a, b, c} {
		_, _, err := st.CreateIdentityIfAbsent(ctx, ident, ident.CompanyName)
		require.NoError(t, err)
	}
	require.NoError(t, st.AdvanceIdentityStatus(ctx, a.ID, model.StatusResearched))

	got, err := st.ListIdentities(ctx, IdentityFilter{NameContains: "Acme"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.ListIdentities(ctx, IdentityFilter{Statuses: []model.ProspectStatus{model.StatusResearched}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = st.ListIdentities(ctx, IdentityFilter{Domain: "veil.example"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)

	got, err = st.ListIdentities(ctx, IdentityFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
