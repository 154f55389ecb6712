package models

import "time"

type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      string
	Priority    string
	Deadline    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Deadline    *time.Time
}

// Apply copies the non-nil fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		d := *p.Deadline
		t.Deadline = &d
	}
}
