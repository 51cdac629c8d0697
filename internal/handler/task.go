package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chrism0rs/Taskie/internal/event"
	"github.com/chrism0rs/Taskie/internal/model"
	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

// Publisher receives domain events after a successful mutation.
type Publisher interface {
	Publish(ev event.Event)
}

// pointsPerDifficulty is the reward per difficulty level when a task is
// created without explicit points.
const pointsPerDifficulty = 10

type TaskHandler struct {
	Store  *store.Store
	Events Publisher
}

type createTaskBody struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Subject     string     `json:"subject" binding:"required"`
	Difficulty  int        `json:"difficulty" binding:"required,min=1,max=5"`
	Points      *int       `json:"points" binding:"omitempty,min=0"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskBody struct {
	Title       *string    `json:"title" binding:"omitempty,min=1"`
	Description *string    `json:"description"`
	Subject     *string    `json:"subject" binding:"omitempty,min=1"`
	Difficulty  *int       `json:"difficulty" binding:"omitempty,min=1,max=5"`
	Points      *int       `json:"points" binding:"omitempty,min=0"`
	DueDate     *time.Time `json:"dueDate"`
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var tasks []model.Task
	var err error
	switch subject, difficulty := c.Query("subject"), c.Query("difficulty"); {
	case subject != "":
		tasks, err = h.Store.ListTasksBySubject(ctx, userID, subject)
	case difficulty != "":
		level, convErr := strconv.Atoi(difficulty)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid difficulty"})
			return
		}
		tasks, err = h.Store.ListTasksByDifficulty(ctx, userID, level)
	default:
		tasks, err = h.Store.ListTasks(ctx, userID)
	}
	if err != nil {
		storeError(c, err, "Tasks not found", "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body createTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task data"})
		return
	}
	title, subject := strings.TrimSpace(body.Title), strings.TrimSpace(body.Subject)
	if title == "" || subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task data"})
		return
	}

	points := body.Difficulty * pointsPerDifficulty
	if body.Points != nil {
		points = *body.Points
	}
	task, err := h.Store.CreateTask(c.Request.Context(), model.Task{
		Title:       title,
		Description: body.Description,
		Subject:     subject,
		Difficulty:  body.Difficulty,
		Points:      points,
		DueDate:     body.DueDate,
		CreatedBy:   userID,
	})
	if err != nil {
		storeError(c, err, "User not found", "Failed to create task")
		return
	}

	h.Events.Publish(event.TaskCreated{Task: task, Origin: userID})
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c)
	if !ok {
		return
	}
	var body updateTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task data"})
		return
	}
	if !h.ownTask(c, taskID, userID) {
		return
	}

	task, err := h.Store.UpdateTask(c.Request.Context(), taskID, model.TaskUpdate{
		Title:       body.Title,
		Description: body.Description,
		Subject:     body.Subject,
		Difficulty:  body.Difficulty,
		Points:      body.Points,
		DueDate:     body.DueDate,
	})
	if err != nil {
		storeError(c, err, "Task not found", "Failed to update task")
		return
	}

	h.Events.Publish(event.TaskUpdated{Task: task, Origin: userID})
	c.JSON(http.StatusOK, task)
}

// Complete marks a task done and credits its points to the caller. The
// creator and their accepted collaborators may complete it.
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	task, err := h.Store.GetTask(ctx, taskID)
	if err != nil {
		storeError(c, err, "Task not found", "Failed to complete task")
		return
	}
	if task.CreatedBy != userID {
		allowed, err := h.Store.Collaborating(ctx, userID, task.CreatedBy)
		if err != nil {
			storeError(c, err, "Task not found", "Failed to complete task")
			return
		}
		if !allowed {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
	}

	task, user, err := h.Store.CompleteTask(ctx, taskID, userID)
	if err != nil {
		storeError(c, err, "Task not found", "Failed to complete task")
		return
	}

	h.Events.Publish(event.TaskCompleted{Task: task, Origin: userID})
	h.Events.Publish(event.PointsUpdated{
		TaskID:      task.ID,
		Points:      task.Points,
		TotalPoints: user.TotalPoints,
		Origin:      userID,
	})
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c)
	if !ok {
		return
	}
	if !h.ownTask(c, taskID, userID) {
		return
	}
	if err := h.Store.DeleteTask(c.Request.Context(), taskID); err != nil {
		storeError(c, err, "Task not found", "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ownTask writes a 404 unless taskID exists and was created by userID.
func (h *TaskHandler) ownTask(c *gin.Context, taskID, userID int64) bool {
	task, err := h.Store.GetTask(c.Request.Context(), taskID)
	if err != nil {
		storeError(c, err, "Task not found", "Failed to fetch task")
		return false
	}
	if task.CreatedBy != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return false
	}
	return true
}
