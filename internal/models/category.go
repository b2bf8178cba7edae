package models

import (
	"todo-service.com/todo-service/internal/constants"
)

type Category struct {
	Versioned
	Name        string                   `gorm:"size:255;not null;index" json:"name"`
	Description string                   `gorm:"size:1000" json:"description"`
	Status      constants.CategoryStatus `gorm:"type:varchar(20);not null" json:"status"`

	// Tasks holds the current tasks filed under this category. It is filled
	// by the store on demand and never persisted with the row.
	Tasks []Task `gorm:"-" json:"tasks,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

func (Category) EntityName() string {
	return "Category"
}

// Deleted reports whether the row is a soft-delete tombstone.
func (c Category) Deleted() bool {
	return c.Status == constants.CategoryDeleted
}

// Revise returns a copy of c that will become its next version. Tasks are not
// carried over.
func (c Category) Revise(v Versioned) Category {
	next := c
	next.Versioned = v
	next.Tasks = nil
	return next
}
