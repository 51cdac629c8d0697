package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrism0rs/Taskie/internal/model"
)

const studySessionColumns = `id, user_id, start_time, end_time, duration, wellness_reminders`

func scanStudySession(row scanner) (model.StudySession, error) {
	var ss model.StudySession
	var startTime int64
	var endTime, duration sql.NullInt64
	var reminders string
	if err := row.Scan(&ss.ID, &ss.UserID, &startTime, &endTime, &duration, &reminders); err != nil {
		return model.StudySession{}, err
	}
	ss.StartTime = fromMillis(startTime)
	ss.EndTime = timePtr(endTime)
	if duration.Valid {
		d := int(duration.Int64)
		ss.Duration = &d
	}
	ss.WellnessReminders = json.RawMessage(reminders)
	return ss, nil
}

func (s *Store) ListStudySessions(ctx context.Context, userID int64) ([]model.StudySession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studySessionColumns+` FROM study_sessions WHERE user_id = ?
		 ORDER BY start_time DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list study sessions: %w", err)
	}
	defer rows.Close()

	out := make([]model.StudySession, 0)
	for rows.Next() {
		ss, err := scanStudySession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study session: %w", err)
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list study sessions: %w", err)
	}
	return out, nil
}

// CreateStudySession starts a session now. Empty reminders are stored as {}.
func (s *Store) CreateStudySession(ctx context.Context, userID int64, reminders json.RawMessage) (model.StudySession, error) {
	if len(reminders) == 0 || string(reminders) == "null" {
		reminders = json.RawMessage("{}")
	}
	if !json.Valid(reminders) {
		return model.StudySession{}, fmt.Errorf("wellness reminders are not valid JSON")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO study_sessions (user_id, start_time, wellness_reminders) VALUES (?, ?, ?)`,
		userID, toMillis(s.now()), string(reminders),
	)
	if isForeignKeyViolation(err) {
		return model.StudySession{}, fmt.Errorf("study session for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.StudySession{}, fmt.Errorf("create study session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.StudySession{}, fmt.Errorf("create study session: %w", err)
	}
	return s.getStudySession(ctx, id)
}

// EndStudySession stamps the end time and duration (minutes) of one of
// userID's sessions. Ending a session twice is ErrConflict.
func (s *Store) EndStudySession(ctx context.Context, id, userID int64, duration int) (model.StudySession, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE study_sessions SET end_time = ?, duration = ?
		 WHERE id = ? AND user_id = ? AND end_time IS NULL`,
		toMillis(s.now()), duration, id, userID,
	)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("end study session %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		ss, err := s.getStudySession(ctx, id)
		if err != nil {
			return model.StudySession{}, err
		}
		if ss.UserID != userID {
			return model.StudySession{}, ErrNotFound
		}
		return model.StudySession{}, fmt.Errorf("study session %d already ended: %w", id, ErrConflict)
	}
	return s.getStudySession(ctx, id)
}

func (s *Store) getStudySession(ctx context.Context, id int64) (model.StudySession, error) {
	ss, err := scanStudySession(s.db.QueryRowContext(ctx,
		`SELECT `+studySessionColumns+` FROM study_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.StudySession{}, ErrNotFound
	}
	if err != nil {
		return model.StudySession{}, fmt.Errorf("get study session %d: %w", id, err)
	}
	return ss, nil
}
