package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"pricehub/models"
)

// PostgresStore persists products to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	// seq is the interleave ordering key and is unique per search scope
	// only, so the table carries a surrogate primary key alongside it.
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			pk               BIGSERIAL PRIMARY KEY,
			seq              INTEGER       NOT NULL,
			platform         VARCHAR(50)   NOT NULL,
			name             TEXT          NOT NULL,
			price            NUMERIC(12,2) NOT NULL,
			image            TEXT          NOT NULL DEFAULT '',
			link             TEXT          NOT NULL DEFAULT '',
			search_query     TEXT          NOT NULL,
			search_platforms TEXT          NOT NULL,
			searched_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_products_scope_seq
			ON products(search_query, search_platforms, seq);
		CREATE INDEX IF NOT EXISTS idx_products_searched_at ON products(searched_at);
		CREATE INDEX IF NOT EXISTS idx_products_platform    ON products(platform);
	`)
	return err
}

// FetchScope returns every product for the exact key, ordered by seq.
func (ps *PostgresStore) FetchScope(query, platformsKey string) ([]models.Product, error) {
	rows, err := ps.db.Query(`
		SELECT seq, platform, name, price, image, link, search_query, search_platforms, searched_at
		FROM products
		WHERE search_query = $1 AND search_platforms = $2
		ORDER BY seq
	`, query, platformsKey)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch scope: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.Seq, &p.Platform, &p.Name, &p.Price, &p.Image,
			&p.Link, &p.SearchQuery, &p.SearchPlatforms, &p.SearchedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// LatestSearchedAt returns the newest batch timestamp for the scope.
func (ps *PostgresStore) LatestSearchedAt(query, platformsKey string) (time.Time, bool, error) {
	var latest sql.NullTime
	err := ps.db.QueryRow(`
		SELECT MAX(searched_at)
		FROM products
		WHERE search_query = $1 AND search_platforms = $2
	`, query, platformsKey).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("postgres: latest searched_at: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

// Replace rewrites the scope: delete, then batch-insert. The delete and the
// inserts are separate statements on purpose — a crash in between leaves the
// scope empty, which reads back as a cache miss on the next lookup.
func (ps *PostgresStore) Replace(query, platformsKey string, products []models.Product) error {
	_, err := ps.db.Exec(
		"DELETE FROM products WHERE search_query = $1 AND search_platforms = $2",
		query, platformsKey)
	if err != nil {
		return fmt.Errorf("postgres: clear scope: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(products); i += batchSize {
		end := i + batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := ps.insertBatch(products[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch []models.Product) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*9)

	for idx, p := range batch {
		base := idx * 9
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		valueArgs = append(valueArgs,
			p.Seq, p.Platform, p.Name, p.Price, p.Image, p.Link,
			p.SearchQuery, p.SearchPlatforms, p.SearchedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (seq, platform, name, price, image, link, search_query, search_platforms, searched_at)
		VALUES %s
		ON CONFLICT (search_query, search_platforms, seq) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// RecentQueries returns the most recently searched distinct queries.
func (ps *PostgresStore) RecentQueries(limit int) ([]string, error) {
	rows, err := ps.db.Query(`
		SELECT search_query, MAX(searched_at) AS latest
		FROM products
		GROUP BY search_query
		ORDER BY latest DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		var latest time.Time
		if err := rows.Scan(&q, &latest); err != nil {
			return nil, fmt.Errorf("postgres: scan query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
