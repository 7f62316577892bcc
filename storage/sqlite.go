package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pricehub/models"
)

// SQLiteStore is a file-backed ProductStore for single-node deployments and
// tests. It satisfies the same rewrite semantics as the Postgres backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath and runs
// schema migrations. Intermediate directories are created automatically.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	const createSQL = `
		CREATE TABLE IF NOT EXISTS products (
			pk               INTEGER PRIMARY KEY AUTOINCREMENT,
			seq              INTEGER  NOT NULL,
			platform         TEXT     NOT NULL,
			name             TEXT     NOT NULL,
			price            REAL     NOT NULL,
			image            TEXT     NOT NULL DEFAULT '',
			link             TEXT     NOT NULL DEFAULT '',
			search_query     TEXT     NOT NULL,
			search_platforms TEXT     NOT NULL,
			searched_at      DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_products_scope_seq
			ON products(search_query, search_platforms, seq);
		CREATE INDEX IF NOT EXISTS idx_products_searched_at ON products(searched_at);`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// FetchScope returns every product for the exact key, ordered by seq.
func (ss *SQLiteStore) FetchScope(query, platformsKey string) ([]models.Product, error) {
	rows, err := ss.db.Query(`
		SELECT seq, platform, name, price, image, link, search_query, search_platforms, searched_at
		FROM products
		WHERE search_query = ? AND search_platforms = ?
		ORDER BY seq
	`, query, platformsKey)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch scope: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.Seq, &p.Platform, &p.Name, &p.Price, &p.Image,
			&p.Link, &p.SearchQuery, &p.SearchPlatforms, &p.SearchedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// LatestSearchedAt returns the newest batch timestamp for the scope.
func (ss *SQLiteStore) LatestSearchedAt(query, platformsKey string) (time.Time, bool, error) {
	var latest time.Time
	err := ss.db.QueryRow(`
		SELECT searched_at
		FROM products
		WHERE search_query = ? AND search_platforms = ?
		ORDER BY searched_at DESC
		LIMIT 1
	`, query, platformsKey).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlite: latest searched_at: %w", err)
	}
	return latest, true, nil
}

// Replace rewrites the scope: delete everything for the key, then insert the
// new set. Rows colliding with the scope index are skipped, not rolled back.
func (ss *SQLiteStore) Replace(query, platformsKey string, products []models.Product) error {
	_, err := ss.db.Exec(
		"DELETE FROM products WHERE search_query = ? AND search_platforms = ?",
		query, platformsKey)
	if err != nil {
		return fmt.Errorf("sqlite: clear scope: %w", err)
	}

	const insertSQL = `
		INSERT OR IGNORE INTO products
			(seq, platform, name, price, image, link, search_query, search_platforms, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range products {
		if _, err := ss.db.Exec(insertSQL,
			p.Seq, p.Platform, p.Name, p.Price, p.Image, p.Link,
			p.SearchQuery, p.SearchPlatforms, p.SearchedAt,
		); err != nil {
			return fmt.Errorf("sqlite: insert product: %w", err)
		}
	}
	return nil
}

// RecentQueries returns the most recently searched distinct queries.
func (ss *SQLiteStore) RecentQueries(limit int) ([]string, error) {
	rows, err := ss.db.Query(`
		SELECT search_query
		FROM products
		GROUP BY search_query
		ORDER BY MAX(searched_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("sqlite: scan query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
