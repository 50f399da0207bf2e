package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "claims, documents and audit_entries")
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "claims.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestSeedDemoClaims(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDemoClaims(ctx))
	// Idempotent.
	require.NoError(t, s.SeedDemoClaims(ctx))

	claims, err := s.ListClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 2)

	assert.Equal(t, "1", claims[0].ID)
	assert.Equal(t, "Johnson v. Metro Transit Authority", claims[0].Name)
	assert.Equal(t, "2", claims[1].ID)
	assert.Equal(t, "Smith – Rear-End Collision MVA", claims[1].Name)
	for _, c := range claims {
		assert.Equal(t, StatusReady, c.Status)
		assert.True(t, c.Ready())
		assert.Equal(t, "2005-01-23", c.AccidentDate)
		require.NotNil(t, c.TotalBilled)
	}
}

func TestSearchClaims(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoClaims(ctx))

	got, err := s.SearchClaims(ctx, "METRO")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got, err = s.SearchClaims(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchClaims(ctx, "no such claimant")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchClaimsFoldsUnicodeCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoClaims(ctx))

	c, err := s.AddClaim(ctx, "ÉLODIE Ørsted – Übergang", 1)
	require.NoError(t, err)

	for _, q := range []string{"élodie", "ørsted", "übergang", "Élodie"} {
		got, err := s.SearchClaims(ctx, q)
		require.NoError(t, err, q)
		require.Len(t, got, 1, q)
		assert.Equal(t, c.ID, got[0].ID, q)
	}
}

func TestAddClaimLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoClaims(ctx))

	c, err := s.AddClaim(ctx, "Doe v. City Bus Co.", 3)
	require.NoError(t, err)
	assert.Equal(t, "3", c.ID)
	assert.Equal(t, StatusProcessing, c.Status)
	assert.Nil(t, c.TotalBilled)

	claims, err := s.ListClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, "3", claims[0].ID, "new claims list first")

	total := 185000.0
	require.NoError(t, s.UpdateClaimStatus(ctx, c.ID, StatusReady, &total))

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)
	require.NotNil(t, got.TotalBilled)
	assert.Equal(t, 185000.0, *got.TotalBilled)
	assert.Equal(t, 3, got.FileCount)

	require.NoError(t, s.IncrementFileCount(ctx, c.ID, 2))
	got, err = s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FileCount)

	_, err = s.AddClaim(ctx, "   ", 0)
	assert.Error(t, err)
	assert.Error(t, s.UpdateClaimStatus(ctx, c.ID, "archived", nil))
}

func TestAddClaimSkipsTakenIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoClaims(ctx))
	require.NoError(t, s.DeleteClaim(ctx, "1"))

	c, err := s.AddClaim(ctx, "Roe", 1)
	require.NoError(t, err)
	assert.Equal(t, "3", c.ID)
}

func TestGetClaimNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetClaim(ctx, "42")
	assert.ErrorIs(t, err, ErrClaimNotFound)
	assert.ErrorIs(t, s.UpdateClaimStatus(ctx, "42", StatusError, nil), ErrClaimNotFound)
	assert.ErrorIs(t, s.DeleteClaim(ctx, "42"), ErrClaimNotFound)
}

func TestDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoClaims(ctx))

	before, err := s.GetClaim(ctx, "2")
	require.NoError(t, err)

	doc, err := s.AddDocument(ctx, Document{ClaimID: "2", FileName: "ER_Records.PDF", Size: 2048})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "pdf", doc.Kind)

	_, err = s.AddDocument(ctx, Document{ClaimID: "2", FileName: "bills.xlsx"})
	require.NoError(t, err)

	_, err = s.AddDocument(ctx, Document{ClaimID: "2", FileName: "photo.jpg"})
	assert.Error(t, err)

	_, err = s.AddDocument(ctx, Document{ClaimID: "99", FileName: "a.txt"})
	assert.ErrorIs(t, err, ErrClaimNotFound)

	docs, err := s.ListDocuments(ctx, "2")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ER_Records.PDF", docs[0].FileName)
	assert.Equal(t, "xlsx", docs[1].Kind)

	after, err := s.GetClaim(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, before.FileCount+2, after.FileCount)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats["total"])
	assert.Equal(t, 2, stats["documents"])
	assert.Equal(t, 2, stats[StatusReady])
}

func TestDocumentKind(t *testing.T) {
	cases := map[string]string{
		"a.pdf":     "pdf",
		"b.DOC":     "doc",
		"c.docx":    "docx",
		"d.xls":     "xls",
		"e.xlsx":    "xlsx",
		"notes.txt": "txt",
		"scan.png":  "",
		"README":    "",
	}
	for name, want := range cases {
		assert.Equal(t, want, DocumentKind(name), name)
	}
}
