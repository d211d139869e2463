package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
// Logic trees and execution configs are stored as JSONB.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new strategy. Returns ErrDuplicateKey if the name is
// already taken.
func (s *StrategyStore) Insert(ctx context.Context, st *domain.SavedStrategy) error {
	if st == nil || st.Name == "" {
		return storage.ErrInvalidInput
	}

	logicJSON, err := json.Marshal(st.Logic)
	if err != nil {
		return fmt.Errorf("marshal strategy logic: %w", err)
	}

	var execJSON []byte
	if st.Exec != nil {
		execJSON, err = json.Marshal(st.Exec)
		if err != nil {
			return fmt.Errorf("marshal execution config: %w", err)
		}
	}

	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO strategies (name, description, logic, execution, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.pool.Exec(ctx, query, st.Name, st.Description, logicJSON, execJSON, createdAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByName retrieves a strategy by name.
func (s *StrategyStore) GetByName(ctx context.Context, name string) (*domain.SavedStrategy, error) {
	query := `
		SELECT name, description, logic, execution, created_at
		FROM strategies
		WHERE name = $1
	`

	row := s.pool.QueryRow(ctx, query, name)
	st, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: strategy %s", storage.ErrNotFound, name)
		}
		return nil, fmt.Errorf("get strategy by name: %w", err)
	}
	return st, nil
}

// List retrieves all strategies ordered by name ASC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.SavedStrategy, error) {
	query := `
		SELECT name, description, logic, execution, created_at
		FROM strategies
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var result []*domain.SavedStrategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}
	return result, nil
}

// Delete removes a strategy by name.
func (s *StrategyStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM strategies WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: strategy %s", storage.ErrNotFound, name)
	}
	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row rowScanner) (*domain.SavedStrategy, error) {
	var st domain.SavedStrategy
	var logicJSON []byte
	var execJSON []byte

	if err := row.Scan(&st.Name, &st.Description, &logicJSON, &execJSON, &st.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(logicJSON, &st.Logic); err != nil {
		return nil, fmt.Errorf("unmarshal strategy logic: %w", err)
	}
	if len(execJSON) > 0 {
		st.Exec = &domain.ExecutionConfig{}
		if err := json.Unmarshal(execJSON, st.Exec); err != nil {
			return nil, fmt.Errorf("unmarshal execution config: %w", err)
		}
	}
	return &st, nil
}
