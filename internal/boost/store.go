package boost

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store reads boost rules from a table with the columns
// (field, phrase, rank, score_offset).
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewStore returns a store reading table through db.
func NewStore(db *sql.DB, table string) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid boost table name %q", table)
	}
	return &Store{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "boost-store"),
	}, nil
}

// Load returns every rule ordered by descending rank.
func (s *Store) Load(ctx context.Context) (Rules, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT field, phrase, rank, score_offset FROM %s ORDER BY rank DESC, phrase ASC`, s.table),
	)
	if err != nil {
		return nil, fmt.Errorf("querying boost rules: %w", err)
	}
	defer rows.Close()

	var rules Rules
	for rows.Next() {
		var (
			r     Rule
			field sql.NullString
			rank  int64
		)
		if err := rows.Scan(&field, &r.Phrase, &rank, &r.Offset); err != nil {
			return nil, fmt.Errorf("scanning boost rule row: %w", err)
		}
		if rank < 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "boost rule %q has negative rank %d", r.Phrase, rank)
		}
		r.Field = field.String
		r.Rank = uint32(rank)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating boost rules: %w", err)
	}
	s.logger.Info("boost rules loaded", "table", s.table, "count", len(rules))
	return rules, nil
}
