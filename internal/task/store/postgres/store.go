// Package postgres persists tasks in the tasks table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"opsgov/internal/task"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const taskColumns = `id, workspace_id, title, status, priority, due_date, assignee, operation_id, created_at, updated_at`

func (s *Store) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var operationID *uuid.UUID
	if t.OperationID != nil {
		raw := uuid.UUID(*t.OperationID)
		operationID = &raw
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID),
		uuid.UUID(t.WorkspaceID),
		t.Title,
		string(t.Status),
		string(t.Priority),
		t.DueDate,
		optionalUserID(t.Assignee),
		operationID,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(s.db.QueryRowContext(ctx, query, uuid.UUID(taskID)))
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID), limit)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, status = $3, priority = $4, due_date = $5, assignee = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID),
		t.Title,
		string(t.Status),
		string(t.Priority),
		t.DueDate,
		optionalUserID(t.Assignee),
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return ensureAffected(result)
}

func (s *Store) Delete(ctx context.Context, taskID id.TaskID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, uuid.UUID(taskID))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return ensureAffected(result)
}

func ensureAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func optionalUserID(userID *id.UserID) *uuid.UUID {
	if userID == nil {
		return nil
	}
	raw := uuid.UUID(*userID)
	return &raw
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t           task.Task
		taskID      uuid.UUID
		workspaceID uuid.UUID
		dueDate     sql.NullTime
		assignee    *uuid.UUID
		operationID *uuid.UUID
	)
	err := row.Scan(
		&taskID,
		&workspaceID,
		&t.Title,
		&t.Status,
		&t.Priority,
		&dueDate,
		&assignee,
		&operationID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.ID = id.TaskID(taskID)
	t.WorkspaceID = id.WorkspaceID(workspaceID)
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if assignee != nil {
		userID := id.UserID(*assignee)
		t.Assignee = &userID
	}
	if operationID != nil {
		opID := id.OperationID(*operationID)
		t.OperationID = &opID
	}
	return &t, nil
}
