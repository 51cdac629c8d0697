package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chrism0rs/Taskie/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "taskie.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *Store, name string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, name+"@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpen_MigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskie.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustCreateUser(t, s, "ada")
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetUserByUsername(context.Background(), "ada"); err != nil {
		t.Fatalf("expected user to survive reopen, got %v", err)
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a (id INT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if upSection("SELECT 1;") != "SELECT 1;" {
		t.Fatalf("expected unmarked file to be returned whole")
	}
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "ada")
	if u.ID <= 0 || u.TotalPoints != 0 || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := s.CreateUser(ctx, "ada", "other@example.com", "hash"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "bob", "ada@example.com", "hash"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail: %+v %v", byEmail, err)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u, err = s.AddUserPoints(ctx, u.ID, 15)
	if err != nil || u.TotalPoints != 15 {
		t.Fatalf("AddUserPoints: %+v %v", u, err)
	}
	u, err = s.UpdateUserBackground(ctx, u.ID, "forest.jpg")
	if err != nil || u.BackgroundImage == nil || *u.BackgroundImage != "forest.jpg" {
		t.Fatalf("UpdateUserBackground: %+v %v", u, err)
	}
	u, err = s.UpdateUserSpotifyTokens(ctx, u.ID, "access", "refresh")
	if err != nil || u.SpotifyAccessToken == nil || *u.SpotifyRefreshToken != "refresh" {
		t.Fatalf("UpdateUserSpotifyTokens: %+v %v", u, err)
	}
	if _, err := s.UpdateUserBackground(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollaborations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ada := mustCreateUser(t, s, "ada")
	bob := mustCreateUser(t, s, "bob")

	c, err := s.CreateCollaboration(ctx, ada.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreateCollaboration: %v", err)
	}
	if c.IsAccepted {
		t.Fatalf("expected pending invitation")
	}
	if _, err := s.CreateCollaboration(ctx, ada.ID, bob.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate, got %v", err)
	}
	if _, err := s.CreateCollaboration(ctx, ada.ID, ada.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for self, got %v", err)
	}
	if _, err := s.CreateCollaboration(ctx, ada.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown friend, got %v", err)
	}

	if _, err := s.AcceptCollaboration(ctx, c.ID, ada.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected sender accept to fail, got %v", err)
	}
	if ok, err := s.Collaborating(ctx, ada.ID, bob.ID); err != nil || ok {
		t.Fatalf("expected pending invitation not to count, got %v %v", ok, err)
	}
	c, err = s.AcceptCollaboration(ctx, c.ID, bob.ID)
	if err != nil || !c.IsAccepted {
		t.Fatalf("AcceptCollaboration: %+v %v", c, err)
	}
	if ok, err := s.Collaborating(ctx, bob.ID, ada.ID); err != nil || !ok {
		t.Fatalf("expected accepted collaboration in both directions, got %v %v", ok, err)
	}

	for _, id := range []int64{ada.ID, bob.ID} {
		list, err := s.ListCollaborations(ctx, id)
		if err != nil || len(list) != 1 {
			t.Fatalf("ListCollaborations(%d): %v %v", id, list, err)
		}
	}
}

func TestStudySessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ada := mustCreateUser(t, s, "ada")
	bob := mustCreateUser(t, s, "bob")

	ss, err := s.CreateStudySession(ctx, ada.ID, nil)
	if err != nil {
		t.Fatalf("CreateStudySession: %v", err)
	}
	if string(ss.WellnessReminders) != "{}" || ss.EndTime != nil {
		t.Fatalf("unexpected session %+v", ss)
	}
	if _, err := s.CreateStudySession(ctx, ada.ID, json.RawMessage(`{"water":true`)); err == nil {
		t.Fatalf("expected invalid JSON to be rejected")
	}

	if _, err := s.EndStudySession(ctx, ss.ID, bob.ID, 25); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other user's end to fail, got %v", err)
	}
	ss, err = s.EndStudySession(ctx, ss.ID, ada.ID, 25)
	if err != nil || ss.EndTime == nil || ss.Duration == nil || *ss.Duration != 25 {
		t.Fatalf("EndStudySession: %+v %v", ss, err)
	}
	if _, err := s.EndStudySession(ctx, ss.ID, ada.ID, 30); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict ending twice, got %v", err)
	}
	if _, err := s.EndStudySession(ctx, 999, ada.ID, 30); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListStudySessions(ctx, ada.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListStudySessions: %v %v", list, err)
	}
}
