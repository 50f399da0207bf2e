package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrClaimNotFound is returned when a claim id is not in the catalog.
var ErrClaimNotFound = errors.New("claim not found")

// Claim statuses
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// MemoryPath keeps the catalog in process memory only.
const MemoryPath = ":memory:"

// Store represents the SQLite-backed claim catalog
type Store struct {
	db *sql.DB
}

// Claim is a case record tracked in the catalog
type Claim struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	LastUpdated  time.Time `json:"lastUpdated"`
	CreatedAt    time.Time `json:"createdAt"`
	FileCount    int       `json:"fileCount"`
	TotalBilled  *float64  `json:"totalBilled,omitempty"`
	AccidentDate string    `json:"accidentDate,omitempty"`
}

// Ready reports whether the claim's report can be opened.
func (c Claim) Ready() bool { return c.Status == StatusReady }

// Document is a file attached to a claim
type Document struct {
	ID        string    `json:"id"`
	ClaimID   string    `json:"claimId"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// AcceptedKinds lists the document extensions the intake accepts.
var AcceptedKinds = []string{"pdf", "doc", "docx", "xls", "xlsx", "txt"}

// DocumentKind returns the normalized kind for a file name, or "" when the
// extension is not accepted.
func DocumentKind(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, k := range AcceptedKinds {
		if ext == k {
			return k
		}
	}
	return ""
}

// NewStore opens the catalog at dbPath. ":memory:" keeps everything for the
// life of the process.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	memory := dbPath == MemoryPath

	if !memory {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(sqliteDriver, dbPath+sqliteDSNParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate performs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'processing',
			file_count INTEGER DEFAULT 0,
			total_billed REAL,
			accident_date TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			size INTEGER DEFAULT 0,
			kind TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_claim_id ON documents(claim_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return s.SetupAuditTables()
}

// demoAccidentDate is the index accident of the bundled demo case.
const demoAccidentDate = "2005-01-23"

// SeedDemoClaims inserts the two bundled demo claims unless the catalog
// already has claims.
func (s *Store) SeedDemoClaims(ctx context.Context) error {
	n, err := s.countClaims(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	seeds := []Claim{
		{
			ID:           "1",
			Name:         "Johnson v. Metro Transit Authority",
			Status:       StatusReady,
			CreatedAt:    time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
			LastUpdated:  time.Date(2025, 1, 20, 14, 30, 0, 0, time.UTC),
			FileCount:    12,
			TotalBilled:  floatPtr(41501.77),
			AccidentDate: demoAccidentDate,
		},
		{
			ID:           "2",
			Name:         "Smith – Rear-End Collision MVA",
			Status:       StatusReady,
			CreatedAt:    time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
			LastUpdated:  time.Date(2025, 1, 18, 11, 0, 0, 0, time.UTC),
			FileCount:    8,
			TotalBilled:  floatPtr(41501.77),
			AccidentDate: demoAccidentDate,
		},
	}
	for _, c := range seeds {
		if err := s.insertClaim(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// ListClaims returns all claims, newest first
func (s *Store) ListClaims(ctx context.Context) ([]Claim, error) {
	return s.queryClaims(ctx, "")
}

// SearchClaims returns claims whose name contains q, ignoring case. An empty
// query matches everything.
func (s *Store) SearchClaims(ctx context.Context, q string) ([]Claim, error) {
	return s.queryClaims(ctx, strings.TrimSpace(q))
}

// queryClaims filters names in Go: SQLite's lower() folds ASCII only.
func (s *Store) queryClaims(ctx context.Context, q string) ([]Claim, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status, file_count, total_billed, accident_date, created_at, updated_at
		FROM claims ORDER BY created_at DESC, CAST(id AS INTEGER) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	needle := strings.ToLower(q)
	var claims []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// GetClaim retrieves a claim by id
func (s *Store) GetClaim(ctx context.Context, id string) (Claim, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, status, file_count, total_billed, accident_date, created_at, updated_at
		FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Claim{}, ErrClaimNotFound
	}
	return c, err
}

// AddClaim registers a new claim in processing state. The id follows the
// catalog size.
func (s *Store) AddClaim(ctx context.Context, name string, fileCount int) (Claim, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Claim{}, fmt.Errorf("failed to add claim: name is required")
	}
	n, err := s.countClaims(ctx)
	if err != nil {
		return Claim{}, err
	}

	now := time.Now()
	c := Claim{
		ID:          strconv.Itoa(n + 1),
		Name:        name,
		Status:      StatusProcessing,
		CreatedAt:   now,
		LastUpdated: now,
		FileCount:   fileCount,
	}
	// Ids can collide after a delete; step past any taken id.
	for {
		if _, err := s.GetClaim(ctx, c.ID); errors.Is(err, ErrClaimNotFound) {
			break
		} else if err != nil {
			return Claim{}, err
		}
		n++
		c.ID = strconv.Itoa(n + 1)
	}

	if err := s.insertClaim(ctx, c); err != nil {
		return Claim{}, err
	}
	return c, nil
}

// UpdateClaimStatus moves a claim to status, optionally setting the billed
// total.
func (s *Store) UpdateClaimStatus(ctx context.Context, id, status string, totalBilled *float64) error {
	switch status {
	case StatusProcessing, StatusReady, StatusError:
	default:
		return fmt.Errorf("failed to update claim %s: unknown status %q", id, status)
	}

	query := `UPDATE claims SET status = ?, updated_at = ? WHERE id = ?`
	args := []interface{}{status, time.Now().Unix(), id}
	if totalBilled != nil {
		query = `UPDATE claims SET status = ?, total_billed = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, *totalBilled, time.Now().Unix(), id}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update claim status: %w", err)
	}
	return requireRow(res, id)
}

// IncrementFileCount bumps a claim's document counter
func (s *Store) IncrementFileCount(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET file_count = file_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update file count: %w", err)
	}
	return requireRow(res, id)
}

// DeleteClaim removes a claim together with its documents and audit trail
func (s *Store) DeleteClaim(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM documents WHERE claim_id = ?`,
		`DELETE FROM audit_entries WHERE claim_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete claim data: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

// AddDocument records a file against a claim and bumps its file count
func (s *Store) AddDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.Kind == "" {
		doc.Kind = DocumentKind(doc.FileName)
	}
	if doc.Kind == "" {
		return Document{}, fmt.Errorf("failed to add document %q: unsupported file type", doc.FileName)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE claims SET file_count = file_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), doc.ClaimID)
	if err != nil {
		return Document{}, fmt.Errorf("failed to update file count: %w", err)
	}
	if err := requireRow(res, doc.ClaimID); err != nil {
		return Document{}, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO documents (id, claim_id, file_name, size, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ClaimID, doc.FileName, doc.Size, doc.Kind, doc.CreatedAt.Unix())
	if err != nil {
		return Document{}, fmt.Errorf("failed to insert document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("failed to commit document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns a claim's documents in upload order
func (s *Store) ListDocuments(ctx context.Context, claimID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, claim_id, file_name, size, kind, created_at
		FROM documents WHERE claim_id = ? ORDER BY created_at ASC, rowid ASC`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.ClaimID, &d.FileName, &d.Size, &d.Kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetStats returns simple catalog counters
func (s *Store) GetStats(ctx context.Context) (map[string]int, error) {
	stats := map[string]int{}
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM claims GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query claim stats: %w", err)
	}
	defer rows.Close()
	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan claim stats: %w", err)
		}
		stats[status] = n
		total += n
	}
	stats["total"] = total

	var docs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&docs); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	stats["documents"] = docs
	return stats, rows.Err()
}

func (s *Store) insertClaim(ctx context.Context, c Claim) error {
	var total interface{}
	if c.TotalBilled != nil {
		total = *c.TotalBilled
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO claims (
			id, name, status, file_count, total_billed, accident_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Status, c.FileCount, total, c.AccidentDate,
		c.CreatedAt.Unix(), c.LastUpdated.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func (s *Store) countClaims(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(sc scanner) (Claim, error) {
	var c Claim
	var total sql.NullFloat64
	var accident sql.NullString
	var createdAt, updatedAt int64
	err := sc.Scan(&c.ID, &c.Name, &c.Status, &c.FileCount, &total, &accident, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Claim{}, err
	}
	if err != nil {
		return Claim{}, fmt.Errorf("failed to scan claim: %w", err)
	}
	if total.Valid {
		v := total.Float64
		c.TotalBilled = &v
	}
	c.AccidentDate = accident.String
	c.CreatedAt = time.Unix(createdAt, 0)
	c.LastUpdated = time.Unix(updatedAt, 0)
	return c, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("claim %s: %w", id, ErrClaimNotFound)
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }
