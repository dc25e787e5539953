package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorldRepository applies generated rows to the world database and reads
// back the id high-water marks a build seeds from.
type WorldRepository struct {
	db *pgxpool.Pool
}

// NewWorldRepository creates a WorldRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewWorldRepository(db *pgxpool.Pool) *WorldRepository {
	return &WorldRepository{db: db}
}

// ApplyStatements executes every statement inside a single transaction, in
// order. Generated SQL is applied all-or-nothing: a failure anywhere rolls
// the whole batch back and reports the failing statement's position.
//
// Precondition: stmts must each be a complete SQL statement.
// Postcondition: Either every statement committed or none did.
func (r *WorldRepository) ApplyStatements(ctx context.Context, stmts []string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement %d of %d: %w", i+1, len(stmts), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MaxID returns the highest value of an id column, or zero when the table
// is empty. Builds use it to raise allocation watermarks above rows that
// already exist in a live database.
//
// Precondition: table and column must name catalog-declared identifiers;
// they are quoted, not parameterised.
// Postcondition: Returns the column maximum, or zero for an empty table.
func (r *WorldRepository) MaxID(ctx context.Context, table, column string) (uint32, error) {
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(%s), 0) FROM %s",
		pgx.Identifier{column}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)

	var high int64
	if err := r.db.QueryRow(ctx, query).Scan(&high); err != nil {
		return 0, fmt.Errorf("querying max %s.%s: %w", table, column, err)
	}
	if high < 0 {
		return 0, fmt.Errorf("max %s.%s is negative: %d", table, column, high)
	}
	return uint32(high), nil
}

// RowCount returns the number of rows in a table.
//
// Precondition: table must name a catalog-declared identifier.
func (r *WorldRepository) RowCount(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return count, nil
}
