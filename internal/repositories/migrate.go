package repository

import (
	"fmt"

	"gorm.io/gorm"

	"todo-service.com/todo-service/internal/constants"
	"todo-service.com/todo-service/internal/models"
)

// Migrate creates the version tables. The composite primary key (id,
// valid_to) already allows a single current row per id; the partial index
// keeps current, non-deleted category names unique.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Task{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	stmts := []string{
		fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_categories_current_name ON categories(name) WHERE valid_to = %s AND status <> '%s'",
			models.InfiniteLiteral(), constants.CategoryDeleted,
		),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS ix_tasks_current_category ON tasks(category_id) WHERE valid_to = %s",
			models.InfiniteLiteral(),
		),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index creation failed: %w", err)
		}
	}
	return nil
}
