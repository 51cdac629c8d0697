package model

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                  int64     `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	TotalPoints         int       `json:"totalPoints"`
	SpotifyAccessToken  *string   `json:"spotifyAccessToken"`
	SpotifyRefreshToken *string   `json:"spotifyRefreshToken"`
	BackgroundImage     *string   `json:"backgroundImage"`
	CreatedAt           time.Time `json:"createdAt"`
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Subject     string     `json:"subject"`
	Difficulty  int        `json:"difficulty"`
	Points      int        `json:"points"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedBy   int64      `json:"createdBy"`
	CompletedBy *int64     `json:"completedBy"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TaskUpdate holds the fields of a partial task update; nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Subject     *string
	Difficulty  *int
	Points      *int
	DueDate     *time.Time
}

type Collaboration struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	FriendID   int64     `json:"friendId"`
	IsAccepted bool      `json:"isAccepted"`
	CreatedAt  time.Time `json:"createdAt"`
}

type StudySession struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"userId"`
	StartTime         time.Time       `json:"startTime"`
	EndTime           *time.Time      `json:"endTime"`
	Duration          *int            `json:"duration"`
	WellnessReminders json.RawMessage `json:"wellnessReminders"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

type DifficultyCount struct {
	Difficulty int `json:"difficulty"`
	Count      int `json:"count"`
}

type TaskStats struct {
	TotalTasks        int               `json:"totalTasks"`
	CompletedTasks    int               `json:"completedTasks"`
	PendingTasks      int               `json:"pendingTasks"`
	TotalPoints       int               `json:"totalPoints"`
	TasksBySubject    []SubjectCount    `json:"tasksBySubject"`
	TasksByDifficulty []DifficultyCount `json:"tasksByDifficulty"`
}
