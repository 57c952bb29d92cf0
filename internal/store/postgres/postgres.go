// Package postgres provides the pgx-backed Store implementation.
//
// Lookups translate one chunk of natural keys into a single query whose
// WHERE clause is an OR of per-key ANDs, so round trips stay proportional to
// the chunk count, never the row count. Inserts are multi-row INSERT ...
// RETURNING id statements. Updates are per-row by id.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macrohub/macrosync/internal/store"
	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Store is a PostgreSQL implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", errors.ErrStoreUnavailable)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LookupIndicators resolves one chunk of indicator natural keys.
func (s *Store) LookupIndicators(ctx context.Context, keys []indicators.IndicatorKey) (map[indicators.IndicatorKey]string, error) {
	found := make(map[indicators.IndicatorKey]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	var (
		preds []string
		args  []any
	)
	for _, key := range keys {
		preds = append(preds, fmt.Sprintf("(name = $%d AND country = $%d)", len(args)+1, len(args)+2))
		args = append(args, key.Name, key.Country)
	}
	query := "SELECT id, name, country FROM indicators WHERE " + strings.Join(preds, " OR ")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var key indicators.IndicatorKey
		if err := rows.Scan(&id, &key.Name, &key.Country); err != nil {
			return nil, wrapPgError(err)
		}
		found[key] = id
	}
	return found, wrapPgError(rows.Err())
}

// LookupReleases resolves one chunk of release natural keys, carrying the
// current actual value along for revision events.
func (s *Store) LookupReleases(ctx context.Context, keys []indicators.ReleaseKey) (map[indicators.ReleaseKey]store.ReleaseRef, error) {
	found := make(map[indicators.ReleaseKey]store.ReleaseRef, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	var (
		preds []string
		args  []any
	)
	for _, key := range keys {
		preds = append(preds, fmt.Sprintf("(indicator_id = $%d AND released_at = $%d AND period = $%d)",
			len(args)+1, len(args)+2, len(args)+3))
		args = append(args, key.IndicatorID, key.ReleasedAt, key.Period)
	}
	query := "SELECT id, indicator_id, released_at, period, COALESCE(actual, '') FROM releases WHERE " +
		strings.Join(preds, " OR ")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref store.ReleaseRef
		var rel indicators.Release
		if err := rows.Scan(&ref.ID, &rel.IndicatorID, &rel.ReleasedAt, &rel.Period, &ref.Actual); err != nil {
			return nil, wrapPgError(err)
		}
		found[rel.Key()] = ref
	}
	return found, wrapPgError(rows.Err())
}

// InsertIndicators bulk-inserts rows, returning generated ids in input order.
func (s *Store) InsertIndicators(ctx context.Context, rows []indicators.Indicator) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var (
		values []string
		args   []any
	)
	for _, row := range rows {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args, row.Name, row.Country, row.Category, row.Source, row.SourceURL)
	}
	query := "INSERT INTO indicators (name, country, category, source, source_url) VALUES " +
		strings.Join(values, ", ") + " RETURNING id"

	return s.insertReturningIDs(ctx, query, args, len(rows))
}

// InsertReleases bulk-inserts rows, returning generated ids in input order.
func (s *Store) InsertReleases(ctx context.Context, rows []indicators.Release) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var (
		values []string
		args   []any
	)
	for _, row := range rows {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5,
			len(args)+6, len(args)+7, len(args)+8, len(args)+9))
		args = append(args, row.IndicatorID, row.ReleasedAt, row.Period,
			row.Actual, row.Forecast, row.Previous, row.Revised, row.Unit, row.Notes)
	}
	query := "INSERT INTO releases (indicator_id, released_at, period, actual, forecast, previous, revised, unit, notes) VALUES " +
		strings.Join(values, ", ") + " RETURNING id"

	return s.insertReturningIDs(ctx, query, args, len(rows))
}

// UpdateIndicator overwrites the mutable fields of the row with row.ID.
func (s *Store) UpdateIndicator(ctx context.Context, row indicators.Indicator) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE indicators SET category = $1, source = $2, source_url = $3, updated_at = now() WHERE id = $4",
		row.Category, row.Source, row.SourceURL, row.ID)
	if err != nil {
		return wrapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("indicator %s: %w", row.ID, errors.ErrNotFound)
	}
	return nil
}

// UpdateRelease overwrites the mutable fields of the row with row.ID.
func (s *Store) UpdateRelease(ctx context.Context, row indicators.Release) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE releases SET actual = $1, forecast = $2, previous = $3, revised = $4, unit = $5, notes = $6, updated_at = now() WHERE id = $7",
		row.Actual, row.Forecast, row.Previous, row.Revised, row.Unit, row.Notes, row.ID)
	if err != nil {
		return wrapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release %s: %w", row.ID, errors.ErrNotFound)
	}
	return nil
}

// insertReturningIDs runs a multi-row insert and collects the generated ids.
func (s *Store) insertReturningIDs(ctx context.Context, query string, args []any, want int) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	ids := make([]string, 0, want)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapPgError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}
	if len(ids) != want {
		return nil, fmt.Errorf("bulk insert returned %d ids, expected %d", len(ids), want)
	}
	return ids, nil
}

// wrapPgError maps SQLSTATE class 23 (integrity constraint violation) onto
// the engine's constraint-violation kind so callers can match it with
// errors.IsConstraint.
func wrapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w", pgErr.Message, errors.ErrConstraint)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.ErrNotFound
	}
	return err
}
