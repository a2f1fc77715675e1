// internal/candidates/postgres.go
package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"caregiver-matching/internal/common/database"
	"caregiver-matching/internal/models"

	"github.com/lib/pq"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresLoader reads active candidates from a table shaped like:
//
//	id text primary key, name text, city text, municipalities text[], services text[],
//	expertise text[], lat double precision, lng double precision, rating double precision,
//	reviews_count integer, availability jsonb, is_active boolean, updated_at timestamptz
type PostgresLoader struct {
	db    *database.PostgresClient
	table string
}

func NewPostgresLoader(db *database.PostgresClient, table string) (*PostgresLoader, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresLoader{db: db, table: table}, nil
}

func (l *PostgresLoader) Source() string {
	return "postgres"
}

func (l *PostgresLoader) Load(ctx context.Context) ([]models.Candidate, error) {
	query := fmt.Sprintf(`SELECT id, name, city, municipalities, services, expertise, lat, lng, rating, reviews_count, availability
		FROM %s WHERE is_active = true ORDER BY updated_at DESC, id`, l.table)

	rows, err := l.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var pool []models.Candidate
	for rows.Next() {
		var (
			c            models.Candidate
			name, city   sql.NullString
			lat, lng     sql.NullFloat64
			rating       sql.NullFloat64
			reviews      sql.NullInt64
			availability []byte
		)
		if err := rows.Scan(
			&c.ID, &name, &city,
			pq.Array(&c.Localities), pq.Array(&c.Services), pq.Array(&c.Expertise),
			&lat, &lng, &rating, &reviews, &availability,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}

		c.Name = name.String
		c.Locality = city.String
		if lat.Valid && lng.Valid {
			c.Coordinate = &models.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
		}
		if rating.Valid {
			v := rating.Float64
			c.Rating = &v
		}
		c.ReviewsCount = int(reviews.Int64)
		if len(availability) > 0 {
			if err := json.Unmarshal(availability, &c.Availability); err != nil {
				return nil, fmt.Errorf("%w: availability of %s: %v", ErrInvalidRecords, c.ID, err)
			}
		}
		pool = append(pool, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return finish(pool)
}

// Store upserts candidates into the table in one transaction and returns the row count.
func (l *PostgresLoader) Store(ctx context.Context, pool []models.Candidate) (int, error) {
	tx, err := l.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf(`INSERT INTO %s
		(id, name, city, municipalities, services, expertise, lat, lng, rating, reviews_count, availability, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, city = EXCLUDED.city, municipalities = EXCLUDED.municipalities,
			services = EXCLUDED.services, expertise = EXCLUDED.expertise, lat = EXCLUDED.lat,
			lng = EXCLUDED.lng, rating = EXCLUDED.rating, reviews_count = EXCLUDED.reviews_count,
			availability = EXCLUDED.availability, is_active = true, updated_at = now()`, l.table)

	for _, c := range pool {
		availability, err := json.Marshal(c.Availability)
		if err != nil {
			return 0, fmt.Errorf("encode availability of %s: %w", c.ID, err)
		}
		var lat, lng sql.NullFloat64
		if c.Coordinate != nil {
			lat = sql.NullFloat64{Float64: c.Coordinate.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: c.Coordinate.Lng, Valid: true}
		}
		var rating sql.NullFloat64
		if c.Rating != nil {
			rating = sql.NullFloat64{Float64: *c.Rating, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, stmt,
			c.ID, c.Name, c.Locality,
			pq.Array(c.Localities), pq.Array(c.Services), pq.Array(c.Expertise),
			lat, lng, rating, c.ReviewsCount, availability,
		); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(pool), nil
}
