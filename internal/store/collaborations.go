package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chrism0rs/Taskie/internal/model"
)

const collaborationColumns = `id, user_id, friend_id, is_accepted, created_at`

func scanCollaboration(row scanner) (model.Collaboration, error) {
	var c model.Collaboration
	var createdAt int64
	if err := row.Scan(&c.ID, &c.UserID, &c.FriendID, &c.IsAccepted, &createdAt); err != nil {
		return model.Collaboration{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

// ListCollaborations returns the invitations userID sent or received, newest
// first.
func (s *Store) ListCollaborations(ctx context.Context, userID int64) ([]model.Collaboration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collaborationColumns+` FROM collaborations
		 WHERE user_id = ? OR friend_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list collaborations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Collaboration, 0)
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collaboration: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collaborations: %w", err)
	}
	return out, nil
}

// CreateCollaboration records an invitation from userID to friendID. An
// existing invitation between the pair is ErrConflict; an unknown friend is
// ErrNotFound.
func (s *Store) CreateCollaboration(ctx context.Context, userID, friendID int64) (model.Collaboration, error) {
	if userID == friendID {
		return model.Collaboration{}, fmt.Errorf("collaborate with self: %w", ErrConflict)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collaborations (user_id, friend_id, created_at) VALUES (?, ?, ?)`,
		userID, friendID, toMillis(s.now()),
	)
	switch {
	case isUniqueViolation(err):
		return model.Collaboration{}, fmt.Errorf("collaboration %d->%d: %w", userID, friendID, ErrConflict)
	case isForeignKeyViolation(err):
		return model.Collaboration{}, fmt.Errorf("collaboration %d->%d: %w", userID, friendID, ErrNotFound)
	case err != nil:
		return model.Collaboration{}, fmt.Errorf("create collaboration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Collaboration{}, fmt.Errorf("create collaboration: %w", err)
	}
	return s.getCollaboration(ctx, id)
}

// AcceptCollaboration accepts an invitation addressed to friendID. Invitations
// addressed to someone else are reported as ErrNotFound.
func (s *Store) AcceptCollaboration(ctx context.Context, id, friendID int64) (model.Collaboration, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE collaborations SET is_accepted = 1 WHERE id = ? AND friend_id = ?`, id, friendID)
	if err != nil {
		return model.Collaboration{}, fmt.Errorf("accept collaboration %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Collaboration{}, ErrNotFound
	}
	return s.getCollaboration(ctx, id)
}

func (s *Store) getCollaboration(ctx context.Context, id int64) (model.Collaboration, error) {
	c, err := scanCollaboration(s.db.QueryRowContext(ctx,
		`SELECT `+collaborationColumns+` FROM collaborations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Collaboration{}, ErrNotFound
	}
	if err != nil {
		return model.Collaboration{}, fmt.Errorf("get collaboration %d: %w", id, err)
	}
	return c, nil
}

// Collaborating reports whether a and b share an accepted collaboration in
// either direction.
func (s *Store) Collaborating(ctx context.Context, a, b int64) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM collaborations
		 WHERE is_accepted = 1
		   AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
		 LIMIT 1`,
		a, b, b, a,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check collaboration: %w", err)
	}
	return true, nil
}
