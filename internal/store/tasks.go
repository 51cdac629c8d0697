package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chrism0rs/Taskie/internal/model"
)

const taskColumns = `id, title, description, subject, difficulty, points, is_completed,
	due_date, created_by, completed_by, completed_at, created_at`

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var description sql.NullString
	var dueDate, completedBy, completedAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(&t.ID, &t.Title, &description, &t.Subject, &t.Difficulty, &t.Points,
		&t.IsCompleted, &dueDate, &t.CreatedBy, &completedBy, &completedAt, &createdAt); err != nil {
		return model.Task{}, err
	}
	t.Description = stringPtr(description)
	t.DueDate = timePtr(dueDate)
	if completedBy.Valid {
		id := completedBy.Int64
		t.CompletedBy = &id
	}
	t.CompletedAt = timePtr(completedAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// ListTasks returns the tasks created by userID, newest first.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.listTasks(ctx, "created_by = ?", userID)
}

func (s *Store) ListTasksBySubject(ctx context.Context, userID int64, subject string) ([]model.Task, error) {
	return s.listTasks(ctx, "created_by = ? AND subject = ?", userID, subject)
}

func (s *Store) ListTasksByDifficulty(ctx context.Context, userID int64, difficulty int) ([]model.Task, error) {
	return s.listTasks(ctx, "created_by = ? AND difficulty = ?", userID, difficulty)
}

func (s *Store) listTasks(ctx context.Context, cond string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE `+cond+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (model.Task, error) {
	return getTask(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryRower, id int64) (model.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// CreateTask inserts t as a pending task. ID, completion fields and CreatedAt
// are assigned by the store.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, subject, difficulty, points, due_date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, nullString(t.Description), t.Subject, t.Difficulty, t.Points,
		nullMillis(t.DueDate), t.CreatedBy, toMillis(s.now()),
	)
	if isForeignKeyViolation(err) {
		return model.Task{}, fmt.Errorf("create task for user %d: %w", t.CreatedBy, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies the non-nil fields of u. An empty update returns the
// task unchanged.
func (s *Store) UpdateTask(ctx context.Context, id int64, u model.TaskUpdate) (model.Task, error) {
	var sets []string
	var args []any
	if u.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *u.Title)
	}
	if u.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *u.Description)
	}
	if u.Subject != nil {
		sets, args = append(sets, "subject = ?"), append(args, *u.Subject)
	}
	if u.Difficulty != nil {
		sets, args = append(sets, "difficulty = ?"), append(args, *u.Difficulty)
	}
	if u.Points != nil {
		sets, args = append(sets, "points = ?"), append(args, *u.Points)
	}
	if u.DueDate != nil {
		sets, args = append(sets, "due_date = ?"), append(args, toMillis(*u.DueDate))
	}
	if len(sets) == 0 {
		return s.GetTask(ctx, id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Task{}, ErrNotFound
	}
	return s.GetTask(ctx, id)
}

// CompleteTask marks the task completed by userID and credits its points to
// userID in one transaction. Completing an already completed task is
// ErrConflict and credits nothing.
func (s *Store) CompleteTask(ctx context.Context, id, userID int64) (model.Task, model.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("begin complete task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET is_completed = 1, completed_by = ?, completed_at = ?
		 WHERE id = ? AND is_completed = 0`,
		userID, toMillis(s.now()), id,
	)
	if err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("complete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("complete task %d: %w", id, err)
	}
	if n == 0 {
		if _, err := getTask(ctx, tx, id); err != nil {
			return model.Task{}, model.User{}, err
		}
		return model.Task{}, model.User{}, fmt.Errorf("task %d already completed: %w", id, ErrConflict)
	}

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return model.Task{}, model.User{}, err
	}
	res, err = tx.ExecContext(ctx, `UPDATE users SET total_points = total_points + ? WHERE id = ?`, task.Points, userID)
	if err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("credit points: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Task{}, model.User{}, fmt.Errorf("credit points to user %d: %w", userID, ErrNotFound)
	}
	user, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Task{}, model.User{}, fmt.Errorf("commit complete task: %w", err)
	}
	return task, user, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TaskStats summarises the tasks created by userID.
func (s *Store) TaskStats(ctx context.Context, userID int64) (model.TaskStats, error) {
	var stats model.TaskStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_completed), 0) FROM tasks WHERE created_by = ?`, userID,
	).Scan(&stats.TotalTasks, &stats.CompletedTasks)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("count tasks: %w", err)
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks

	user, err := s.GetUser(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return model.TaskStats{}, err
	default:
		stats.TotalPoints = user.TotalPoints
	}

	stats.TasksBySubject = make([]model.SubjectCount, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, COUNT(*) FROM tasks WHERE created_by = ? GROUP BY subject ORDER BY subject`, userID)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("tasks by subject: %w", err)
	}
	for rows.Next() {
		var sc model.SubjectCount
		if err := rows.Scan(&sc.Subject, &sc.Count); err != nil {
			rows.Close()
			return model.TaskStats{}, fmt.Errorf("scan subject count: %w", err)
		}
		stats.TasksBySubject = append(stats.TasksBySubject, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.TaskStats{}, fmt.Errorf("tasks by subject: %w", err)
	}

	stats.TasksByDifficulty = make([]model.DifficultyCount, 0)
	rows, err = s.db.QueryContext(ctx,
		`SELECT difficulty, COUNT(*) FROM tasks WHERE created_by = ? GROUP BY difficulty ORDER BY difficulty`, userID)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("tasks by difficulty: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc model.DifficultyCount
		if err := rows.Scan(&dc.Difficulty, &dc.Count); err != nil {
			return model.TaskStats{}, fmt.Errorf("scan difficulty count: %w", err)
		}
		stats.TasksByDifficulty = append(stats.TasksByDifficulty, dc)
	}
	if err := rows.Err(); err != nil {
		return model.TaskStats{}, fmt.Errorf("tasks by difficulty: %w", err)
	}
	return stats, nil
}
