package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"MarketWire/internal/domain"
	"MarketWire/internal/ports"
)

// PostgresStore persists enriched articles and serves the company directory.
// The enriched_articles table carries a unique constraint on dedup_key; that
// constraint, not an application-level check, is what makes InsertIfAbsent
// safe under concurrent workers.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindByDedupKey reports whether a record with this content hash exists.
func (s *PostgresStore) FindByDedupKey(ctx context.Context, key string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From("enriched_articles").
		Where(sq.Eq{"dedup_key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build dedup query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query dedup key: %w", err)
	}
	return true, nil
}

// InsertIfAbsent stores the record unless its dedup key is already present.
// ON CONFLICT DO NOTHING makes the insert atomic: a concurrent duplicate
// surfaces as inserted=false, never as an error.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, record domain.EnrichedArticle) (bool, error) {
	passthrough, err := json.Marshal(record.Passthrough)
	if err != nil {
		return false, fmt.Errorf("encode passthrough fields: %w", err)
	}

	query, args, err := s.builder.
		Insert("enriched_articles").
		Columns(
			"dedup_key", "file_id", "headline", "body", "published_at",
			"decision", "reason", "summary", "sector", "companies",
			"global_flag", "commodities_flag",
			"sentiment", "impact", "rationale",
			"passthrough", "ingested_at",
		).
		Values(
			record.DedupKey, record.FileID, record.Headline, record.Body, record.PublishedAt,
			string(record.Decision), record.Reason, record.Summary, record.Sector, pq.Array(record.Companies),
			record.Global, record.Commodities,
			string(record.Sentiment), string(record.Impact), record.Rationale,
			passthrough, record.IngestedAt,
		).
		Suffix("ON CONFLICT (dedup_key) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert enriched article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// LoadDirectory reads the full company directory. Called once per batch; the
// pipeline holds the result as an immutable snapshot for the run.
func (s *PostgresStore) LoadDirectory(ctx context.Context) ([]domain.DirectoryEntry, error) {
	query, args, err := s.builder.
		Select("symbol", "display_name").
		From("company_directory").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build directory query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}
	defer rows.Close()

	var entries []domain.DirectoryEntry
	for rows.Next() {
		var entry domain.DirectoryEntry
		if err := rows.Scan(&entry.Symbol, &entry.DisplayName); err != nil {
			return nil, fmt.Errorf("scan directory entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory rows: %w", err)
	}

	return entries, nil
}
