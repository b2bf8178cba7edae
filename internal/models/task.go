package models

import (
	"time"

	"todo-service.com/todo-service/internal/constants"
)

type Task struct {
	Versioned
	Name        string                 `gorm:"size:255;not null" json:"name"`
	Description string                 `gorm:"size:2000" json:"description"`
	Deadline    time.Time              `gorm:"not null" json:"deadline"`
	Status      constants.TaskStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Priority    constants.TaskPriority `gorm:"type:varchar(20);not null" json:"priority"`
	AssignedTo  string                 `gorm:"size:64" json:"assignedTo"`
	ReportedBy  string                 `gorm:"size:64;not null" json:"reportedBy"`

	// CategoryID and CategoryValidTo reference the category version that was
	// current when this task version was written.
	CategoryID      *string    `gorm:"size:36;index" json:"categoryId,omitempty"`
	CategoryValidTo *time.Time `json:"categoryValidTo,omitempty"`

	Category *Category `gorm:"-" json:"category,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

func (Task) EntityName() string {
	return "Task"
}

func (t Task) Deleted() bool {
	return t.Status == constants.TaskDeleted
}

// Revise returns a copy of t that will become its next version.
func (t Task) Revise(v Versioned) Task {
	next := t
	next.Versioned = v
	return next
}

// AttachCategory points t at the given category version.
func (t *Task) AttachCategory(c *Category) {
	if c == nil {
		t.DetachCategory()
		return
	}
	id := c.ID
	validTo := c.ValidTo
	t.CategoryID = &id
	t.CategoryValidTo = &validTo
	t.Category = c
}

func (t *Task) DetachCategory() {
	t.CategoryID = nil
	t.CategoryValidTo = nil
	t.Category = nil
}

// CategoryName returns the name of the attached category, or "".
func (t Task) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}
