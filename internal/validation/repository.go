package validation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"qcat/internal/database"
)

// RunRepository persists ValidationRun records (SPEC_FULL.md §4.8, §6.6).
type RunRepository interface {
	Insert(ctx context.Context, run *ValidationRun) error
	UpdateStatus(ctx context.Context, id string, status RunStatus, result *BootstrapResultDTO, runErr string) error
	Get(ctx context.Context, id string) (*ValidationRun, error)
	List(ctx context.Context, filter RunFilter) ([]*ValidationRun, error)
}

// PostgresRunRepository is a database/sql + lib/pq backed RunRepository,
// following the platform's own *database.DB (embedded *sql.DB) convention.
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository wraps an already-connected database handle.
func NewPostgresRunRepository(db *database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Insert implements RunRepository.
func (r *PostgresRunRepository) Insert(ctx context.Context, run *ValidationRun) error {
	reqJSON, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO validation_runs (id, symbol, strategy, statistic, status, request, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.Symbol, run.Strategy, run.Statistic, run.Status, reqJSON, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert validation run: %w", err)
	}
	return nil
}

// UpdateStatus implements RunRepository.
func (r *PostgresRunRepository) UpdateStatus(ctx context.Context, id string, status RunStatus, result *BootstrapResultDTO, runErr string) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE validation_runs SET status = $1, result = $2, error = $3, updated_at = $4
		WHERE id = $5
	`, status, resultJSON, runErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update validation run: %w", err)
	}
	return nil
}

// Get implements RunRepository.
func (r *PostgresRunRepository) Get(ctx context.Context, id string) (*ValidationRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, symbol, strategy, statistic, status, request, result, error, created_at, updated_at
		FROM validation_runs WHERE id = $1
	`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("validation run %q not found", id)
	}
	return run, err
}

// List implements RunRepository.
func (r *PostgresRunRepository) List(ctx context.Context, filter RunFilter) ([]*ValidationRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, strategy, statistic, status, request, result, error, created_at, updated_at
		FROM validation_runs
		WHERE ($1 = '' OR symbol = $1) AND ($2 = '' OR strategy = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, filter.Symbol, filter.Strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("list validation runs: %w", err)
	}
	defer rows.Close()

	var runs []*ValidationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*ValidationRun, error) {
	var run ValidationRun
	var reqJSON, resultJSON []byte
	var errText sql.NullString
	if err := row.Scan(&run.ID, &run.Symbol, &run.Strategy, &run.Statistic, &run.Status,
		&reqJSON, &resultJSON, &errText, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reqJSON, &run.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if len(resultJSON) > 0 {
		var result BootstrapResultDTO
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		run.Result = &result
	}
	run.Error = errText.String
	return &run, nil
}
