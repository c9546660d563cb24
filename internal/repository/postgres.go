package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/prometheus/client_golang/prometheus"

	"realtychat/internal/metrics"
	"realtychat/internal/model"
	"realtychat/internal/utils"
)

// Columns selected for every listing read. The embedding is never loaded.
const listingColumns = `
	property_id, listing_code, title, description, city, district, property_type,
	purpose, status, price_lkr, bedrooms, bathrooms, area_sqm, land_perch,
	featured, created_at, updated_at`

// EmbeddingDims is the width of the embedding column
const EmbeddingDims = model.EmbeddingDims

var colomboNumberRe = regexp.MustCompile(`colombo\s*\d+`)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db       *sqlx.DB
	pageSize int
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, pageSize int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithDB(db, pageSize), nil
}

// NewWithDB wraps an open connection pool
func NewWithDB(db *sqlx.DB, pageSize int) *PostgresRepository {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &PostgresRepository{db: db, pageSize: pageSize}
}

// DB exposes the pool for migrations
func (r *PostgresRepository) DB() *sqlx.DB {
	return r.db
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func observe(op string) func() {
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues(op))
	return func() { timer.ObserveDuration() }
}

// buildListingWhere renders q as a WHERE clause with $N placeholders.
// Only available listings ever match.
func buildListingWhere(q model.ListingQuery) (string, []interface{}) {
	whereClauses := []string{"status = 'available'"}
	args := []interface{}{}
	argIndex := 1

	if q.City != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("(city = $%d OR district = $%d)", argIndex, argIndex))
		args = append(args, *q.City)
		argIndex++
	}
	if q.Type != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("property_type = $%d", argIndex))
		args = append(args, string(*q.Type))
		argIndex++
	}
	if q.Tenure != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("purpose = $%d", argIndex))
		args = append(args, string(*q.Tenure))
		argIndex++
	}
	if q.MinBeds != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("bedrooms >= $%d", argIndex))
		args = append(args, *q.MinBeds)
		argIndex++
	}
	if q.Price != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price_lkr = $%d", argIndex))
		args = append(args, *q.Price)
		argIndex++
	}
	if q.PriceMin != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price_lkr >= $%d", argIndex))
		args = append(args, *q.PriceMin)
		argIndex++
	}
	if q.PriceMax != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price_lkr <= $%d", argIndex))
		args = append(args, *q.PriceMax)
	}

	return strings.Join(whereClauses, " AND "), args
}

// SearchListings returns available listings matching q, featured first then cheapest
func (r *PostgresRepository) SearchListings(ctx context.Context, q model.ListingQuery) ([]model.Listing, error) {
	defer observe("search_listings")()

	limit := q.Limit
	if limit <= 0 || limit > r.pageSize {
		limit = r.pageSize
	}

	where, args := buildListingWhere(q)
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE %s
		ORDER BY featured DESC, price_lkr ASC NULLS LAST, property_id ASC
		LIMIT $%d
	`, listingColumns, where, len(args)+1)
	args = append(args, limit)

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// CheapestMatch returns the lowest price and the count of available listings
// for a city and type, or nil when nothing is priced
func (r *PostgresRepository) CheapestMatch(ctx context.Context, q model.PriceHintQuery) (*model.PriceHint, error) {
	defer observe("cheapest_match")()

	city, typ := q.City, q.Type
	where, args := buildListingWhere(model.ListingQuery{City: &city, Type: &typ, Tenure: q.Tenure, MinBeds: q.MinBeds})
	query := fmt.Sprintf(`
		SELECT MIN(price_lkr) AS min_price, COUNT(*) AS cnt
		FROM properties
		WHERE %s AND price_lkr IS NOT NULL
	`, where)

	var row struct {
		MinPrice sql.NullInt64 `db:"min_price"`
		Count    int           `db:"cnt"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get cheapest match: %w", err)
	}
	if !row.MinPrice.Valid || row.Count == 0 {
		return nil, nil
	}
	return &model.PriceHint{MinPrice: row.MinPrice.Int64, Count: row.Count}, nil
}

// AlternativeCity returns the city or district with the most available listings
// of type typ, excluding excludeCity. An empty string means there is none.
func (r *PostgresRepository) AlternativeCity(ctx context.Context, excludeCity string, typ model.PropertyType) (string, error) {
	defer observe("alternative_city")()

	query := `
		SELECT COALESCE(city, district) AS place
		FROM properties
		WHERE status = 'available'
		  AND property_type = $1
		  AND COALESCE(city, district) IS NOT NULL
		  AND LOWER(COALESCE(city, district)) <> LOWER($2)
		  AND LOWER(COALESCE(district, '')) <> LOWER($2)
		GROUP BY COALESCE(city, district)
		ORDER BY COUNT(*) DESC, place ASC
		LIMIT 1
	`
	var place string
	err := r.db.GetContext(ctx, &place, query, string(typ), excludeCity)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find alternative city: %w", err)
	}
	return place, nil
}

// ResolveArea maps a free-text area to a display city: a known city or
// district first, then the alias table, then fixed heuristics, and finally
// the title-cased input
func (r *PostgresRepository) ResolveArea(ctx context.Context, area string) (string, error) {
	defer observe("resolve_area")()

	low := strings.ToLower(strings.TrimSpace(area))
	if low == "" {
		return "", nil
	}

	var city sql.NullString
	err := r.db.GetContext(ctx, &city, `
		SELECT COALESCE(city, district)
		FROM properties
		WHERE LOWER(city) = $1 OR LOWER(district) = $1
		LIMIT 1
	`, low)
	switch {
	case err == nil && city.Valid && city.String != "":
		return utils.TitleCase(city.String), nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to resolve area from listings: %w", err)
	}

	city = sql.NullString{}
	err = r.db.GetContext(ctx, &city, `SELECT city FROM area_aliases WHERE LOWER(alias) = $1 LIMIT 1`, low)
	switch {
	case err == nil && city.Valid && city.String != "":
		return utils.TitleCase(city.String), nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to resolve area alias: %w", err)
	}

	return fallbackArea(area), nil
}

// fallbackArea applies the fixed area heuristics
func fallbackArea(area string) string {
	low := strings.ToLower(area)
	if strings.Contains(low, "borella") {
		return "Colombo"
	}
	if m := colomboNumberRe.FindString(low); m != "" {
		return utils.TitleCase(m)
	}
	return utils.TitleCase(area)
}

// GetListingByID retrieves a single listing by its ID, whatever its status.
// Detail pages keep working for listings that have since sold or been let.
func (r *PostgresRepository) GetListingByID(ctx context.Context, listingID int64) (*model.Listing, error) {
	defer observe("get_listing")()

	var listing model.Listing
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE property_id = $1`, listingColumns)
	err := r.db.GetContext(ctx, &listing, query, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// SimilarListings returns the available listings closest to listingID by embedding distance
func (r *PostgresRepository) SimilarListings(ctx context.Context, listingID int64, limit int) ([]model.Listing, error) {
	defer observe("similar_listings")()

	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE status = 'available'
		  AND property_id <> $1
		  AND embedding IS NOT NULL
		ORDER BY embedding <-> (SELECT embedding FROM properties WHERE property_id = $1)
		LIMIT $2
	`, listingColumns)

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, listingID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch similar listings: %w", err)
	}
	return listings, nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	defer observe("batch_update_embeddings")()

	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE property_id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		if len(item.Embedding) != EmbeddingDims {
			errs = append(errs, fmt.Sprintf("listing_id %d: embedding has %d dimensions, want %d", item.ListingID, len(item.Embedding), EmbeddingDims))
			continue
		}
		res, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.ListingID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("listing_id %d: %v", item.ListingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("listing_id %d: not found", item.ListingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// OpenInvestments lists the open investment plans, newest first
func (r *PostgresRepository) OpenInvestments(ctx context.Context, limit int) ([]model.Investment, error) {
	defer observe("open_investments")()

	items := []model.Investment{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, name, summary, min_invest_lkr, expected_yield, status, created_at
		FROM investments
		WHERE status = 'open'
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch investments: %w", err)
	}
	return items, nil
}

// LogTurn records one chat turn
func (r *PostgresRepository) LogTurn(ctx context.Context, t model.TurnLog) error {
	defer observe("log_turn")()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO msg_intents (session_id, turn_index, user_text, intent, confidence, slots_json, reply_type, result_count, relax_mode)
		VALUES (:session_id, :turn_index, :user_text, :intent, :confidence, :slots_json, :reply_type, :result_count, :relax_mode)
	`, t)
	if err != nil {
		return fmt.Errorf("failed to log turn: %w", err)
	}
	return nil
}

// LogFeedback records a user action on a listing card
func (r *PostgresRepository) LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error {
	defer observe("log_feedback")()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO turn_feedback (session_id, property_id, action)
		VALUES ($1, $2, $3)
	`, sessionID, listingID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}
