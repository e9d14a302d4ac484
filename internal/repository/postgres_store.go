package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowforge/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Store interface. The
// graph (nodes, connections, settings) and execution result bags are kept as
// jsonb columns; the engine never queries inside them.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore on top of an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the workflows and executions tables if they do not
// exist. Used by cmd/seed and the integration tests; production deployments
// run migrations out of band.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			nodes       JSONB NOT NULL DEFAULT '[]',
			connections JSONB NOT NULL DEFAULT '[]',
			settings    JSONB,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS executions (
			id          TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			status      TEXT NOT NULL,
			mode        TEXT NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			stopped_at  TIMESTAMPTZ,
			finished    BOOLEAN NOT NULL DEFAULT FALSE,
			data        JSONB NOT NULL DEFAULT '{}',
			snapshot    JSONB NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS executions_workflow_id_idx ON executions (workflow_id);
	`)
	return err
}

// CreateWorkflow persists a new workflow definition.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, wf *models.Workflow) error {
	nodes, connections, settings, err := marshalGraph(wf)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflows (id, name, description, status, nodes, connections, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		wf.ID, wf.Name, wf.Description, wf.Status, nodes, connections, settings, wf.CreatedAt, wf.UpdatedAt)
	return err
}

// GetWorkflow retrieves a workflow by id.
func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, description, status, nodes, connections, settings, created_at, updated_at
		 FROM workflows WHERE id = $1`, id)
	return scanWorkflow(row)
}

// ListWorkflows returns all stored workflows ordered by creation time.
func (s *PostgresStore) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, status, nodes, connections, settings, created_at, updated_at
		 FROM workflows ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}

// UpdateWorkflow replaces an existing workflow definition.
func (s *PostgresStore) UpdateWorkflow(ctx context.Context, wf *models.Workflow) error {
	nodes, connections, settings, err := marshalGraph(wf)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE workflows SET name = $2, description = $3, status = $4, nodes = $5, connections = $6, settings = $7, updated_at = $8
		 WHERE id = $1`,
		wf.ID, wf.Name, wf.Description, wf.Status, nodes, connections, settings, wf.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorkflow removes a workflow and its embedded graph.
func (s *PostgresStore) DeleteWorkflow(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateExecution persists a new execution record.
func (s *PostgresStore) CreateExecution(ctx context.Context, ex *models.Execution) error {
	data, snapshot, err := marshalExecution(ex)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO executions (id, workflow_id, status, mode, started_at, stopped_at, finished, data, snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ex.ID, ex.WorkflowID, ex.Status, ex.Mode, ex.StartedAt, ex.StoppedAt, ex.Finished, data, snapshot)
	return err
}

// GetExecution retrieves an execution by id.
func (s *PostgresStore) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, workflow_id, status, mode, started_at, stopped_at, finished, data, snapshot
		 FROM executions WHERE id = $1`, id)
	return scanExecution(row)
}

// ListExecutions returns the executions recorded for a workflow, most recent
// first.
func (s *PostgresStore) ListExecutions(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workflow_id, status, mode, started_at, stopped_at, finished, data, snapshot
		 FROM executions WHERE workflow_id = $1 ORDER BY started_at DESC`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Execution
	for rows.Next() {
		ex, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// UpdateExecution replaces an execution record, refusing status changes on
// records that already reached a terminal state.
func (s *PostgresStore) UpdateExecution(ctx context.Context, ex *models.Execution) error {
	data, snapshot, err := marshalExecution(ex)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE executions SET status = $2, mode = $3, started_at = $4, stopped_at = $5, finished = $6, data = $7, snapshot = $8
		 WHERE id = $1 AND NOT (finished AND status IN ('success', 'error', 'stopped') AND status <> $2)`,
		ex.ID, ex.Status, ex.Mode, ex.StartedAt, ex.StoppedAt, ex.Finished, data, snapshot)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a monotonicity refusal.
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM executions WHERE id = $1)`, ex.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrExecutionFinished
	}
	return nil
}

func marshalGraph(wf *models.Workflow) (nodes, connections, settings []byte, err error) {
	if nodes, err = json.Marshal(wf.Nodes); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	if connections, err = json.Marshal(wf.Connections); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal connections: %w", err)
	}
	if settings, err = json.Marshal(wf.Settings); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	return nodes, connections, settings, nil
}

func marshalExecution(ex *models.Execution) (data, snapshot []byte, err error) {
	if data, err = json.Marshal(ex.Data); err != nil {
		return nil, nil, fmt.Errorf("marshal execution data: %w", err)
	}
	if snapshot, err = json.Marshal(ex.Workflow); err != nil {
		return nil, nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		wf          models.Workflow
		nodes       []byte
		connections []byte
		settings    []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(&wf.ID, &wf.Name, &wf.Description, &wf.Status, &nodes, &connections, &settings, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(nodes, &wf.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(connections, &wf.Connections); err != nil {
		return nil, fmt.Errorf("unmarshal connections: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &wf.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	wf.CreatedAt = createdAt
	wf.UpdatedAt = updatedAt
	return &wf, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		ex       models.Execution
		data     []byte
		snapshot []byte
	)
	err := row.Scan(&ex.ID, &ex.WorkflowID, &ex.Status, &ex.Mode, &ex.StartedAt, &ex.StoppedAt, &ex.Finished, &data, &snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &ex.Data); err != nil {
		return nil, fmt.Errorf("unmarshal execution data: %w", err)
	}
	if err := json.Unmarshal(snapshot, &ex.Workflow); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &ex, nil
}
