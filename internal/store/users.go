package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chrism0rs/Taskie/internal/model"
)

const userColumns = `id, username, email, password, total_points,
	spotify_access_token, spotify_refresh_token, background_image, created_at`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	var spotifyAccess, spotifyRefresh, background sql.NullString
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TotalPoints,
		&spotifyAccess, &spotifyRefresh, &background, &createdAt); err != nil {
		return model.User{}, err
	}
	u.SpotifyAccessToken = stringPtr(spotifyAccess)
	u.SpotifyRefreshToken = stringPtr(spotifyRefresh)
	u.BackgroundImage = stringPtr(background)
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// CreateUser inserts a user. A taken username or email is ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, toMillis(s.now()),
	)
	if isUniqueViolation(err) {
		return model.User{}, fmt.Errorf("create user %q: %w", username, ErrConflict)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AddUserPoints adds delta to the user's total and returns the updated user.
func (s *Store) AddUserPoints(ctx context.Context, id int64, delta int) (model.User, error) {
	return s.updateUser(ctx, id, `total_points = total_points + ?`, delta)
}

func (s *Store) UpdateUserSpotifyTokens(ctx context.Context, id int64, accessToken, refreshToken string) (model.User, error) {
	return s.updateUser(ctx, id, `spotify_access_token = ?, spotify_refresh_token = ?`, accessToken, refreshToken)
}

func (s *Store) UpdateUserBackground(ctx context.Context, id int64, backgroundImage string) (model.User, error) {
	return s.updateUser(ctx, id, `background_image = ?`, backgroundImage)
}

func (s *Store) updateUser(ctx context.Context, id int64, set string, args ...any) (model.User, error) {
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return model.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.User{}, ErrNotFound
	}
	return s.GetUser(ctx, id)
}
