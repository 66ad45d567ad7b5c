package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

const scopeTechnical = "technical"

func operationalScope(scenarioID string) string {
	return "operational/" + scenarioID
}

// Store is the SQLite ConfigStore.
type Store struct {
	db *sql.DB
}

var _ ConfigStore = (*Store)(nil)

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// A set lives under one scope: "technical" or "operational/<scenario id>".
	// value holds the JSON encoding of the item value, NULL when absent.
	query := `
	CREATE TABLE IF NOT EXISTS scenarios (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario_id TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS config_items (
		scope TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		value JSON,
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (scope, position),
		UNIQUE (scope, name)
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create config tables: %w", err)
	}

	return nil
}

// ListScenarios returns scenarios in creation order.
func (s *Store) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scenario_id, description FROM scenarios ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []model.Scenario{}
	for rows.Next() {
		var sc model.Scenario
		if err := rows.Scan(&sc.ScenarioID, &sc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

// CreateScenario inserts a scenario and its initial set in one transaction.
// A taken id yields ErrScenarioExists.
func (s *Store) CreateScenario(ctx context.Context, sc model.Scenario, initial []model.ConfigItem) error {
	if err := model.ValidateSet(initial); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scenarios (scenario_id, description) VALUES (?, ?)`,
		sc.ScenarioID, sc.Description)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrScenarioExists, sc.ScenarioID)
		}
		return fmt.Errorf("failed to insert scenario: %w", err)
	}
	if err := writeSet(ctx, tx, operationalScope(sc.ScenarioID), initial); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetTechnical(ctx context.Context) ([]model.ConfigItem, error) {
	return s.getSet(ctx, s.db, scopeTechnical)
}

func (s *Store) PutTechnical(ctx context.Context, items []model.ConfigItem) error {
	return s.putSet(ctx, scopeTechnical, "", items)
}

func (s *Store) GetOperational(ctx context.Context, scenarioID string) ([]model.ConfigItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := scenarioExists(ctx, tx, scenarioID); err != nil {
		return nil, err
	}
	return s.getSet(ctx, tx, operationalScope(scenarioID))
}

func (s *Store) PutOperational(ctx context.Context, scenarioID string, items []model.ConfigItem) error {
	return s.putSet(ctx, operationalScope(scenarioID), scenarioID, items)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scenarioExists(ctx context.Context, q querier, scenarioID string) error {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM scenarios WHERE scenario_id = ?`, scenarioID).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to look up scenario: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	return nil
}

func (s *Store) getSet(ctx context.Context, q querier, scope string) ([]model.ConfigItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, value, description FROM config_items WHERE scope = ? ORDER BY position`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query config items: %w", err)
	}
	defer rows.Close()

	items := []model.ConfigItem{}
	for rows.Next() {
		var (
			item  model.ConfigItem
			value sql.NullString
		)
		if err := rows.Scan(&item.Name, &item.Type, &value, &item.Description); err != nil {
			return nil, fmt.Errorf("failed to scan config item: %w", err)
		}
		if value.Valid {
			if err := json.Unmarshal([]byte(value.String), &item.Value); err != nil {
				return nil, fmt.Errorf("failed to decode value of %s: %w", item.Name, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// putSet replaces every item of scope in one transaction. A non-empty
// scenarioID must name an existing scenario.
func (s *Store) putSet(ctx context.Context, scope, scenarioID string, items []model.ConfigItem) error {
	if err := model.ValidateSet(items); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if scenarioID != "" {
		if err := scenarioExists(ctx, tx, scenarioID); err != nil {
			return err
		}
	}
	if err := writeSet(ctx, tx, scope, items); err != nil {
		return err
	}
	return tx.Commit()
}

// writeSet replaces the items of scope inside tx.
func writeSet(ctx context.Context, tx *sql.Tx, scope string, items []model.ConfigItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM config_items WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("failed to clear config items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO config_items (scope, position, name, type, value, description) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		var value sql.NullString
		if !item.Value.IsAbsent() {
			data, err := json.Marshal(item.Value)
			if err != nil {
				return fmt.Errorf("failed to encode value of %s: %w", item.Name, err)
			}
			value = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, scope, i, item.Name, string(item.Type), value, item.Description); err != nil {
			return fmt.Errorf("failed to insert config item %s: %w", item.Name, err)
		}
	}

	return nil
}
