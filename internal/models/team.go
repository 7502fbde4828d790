package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in TeamInput) Team() (Team, error) {
	t := Team{Name: strings.TrimSpace(in.Name), Description: optional(in.Description)}
	if t.Name == "" {
		return Team{}, invalid("name", "is required")
	}
	return t, nil
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is a unit of work, optionally assigned to a user, a team and a loft.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	LoftID      *uuid.UUID `json:"loft_id,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     string     `json:"due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	LoftID      *uuid.UUID `json:"loft_id,omitempty"`
}

func (in TaskInput) Task() (Task, error) {
	t := Task{
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description),
		Status:      TaskStatus(strings.TrimSpace(in.Status)),
		AssignedTo:  nonNilUUID(in.AssignedTo),
		TeamID:      nonNilUUID(in.TeamID),
		LoftID:      nonNilUUID(in.LoftID),
	}
	if t.Title == "" {
		return Task{}, invalid("title", "title is required")
	}
	switch t.Status {
	case TaskTodo, TaskInProgress, TaskCompleted:
	default:
		return Task{}, invalid("status", "must be todo, in_progress or completed")
	}
	if strings.TrimSpace(in.DueDate) != "" {
		due, err := ParseDate(in.DueDate)
		if err != nil {
			return Task{}, invalid("due_date", err.Error())
		}
		t.DueDate = &due
	}
	return t, nil
}
