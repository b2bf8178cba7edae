package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/internal/models"
	"todo-service.com/todo-service/internal/search"
	"todo-service.com/todo-service/pkg/resources"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

// tickingClock advances one millisecond on every read.
func tickingClock() func() time.Time {
	base := time.Date(2030, time.January, 1, 9, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Millisecond)
	}
}

func setupStore(t *testing.T) (*gorm.DB, *Store) {
	db := setupTestDB(t)
	return db, NewStore(db).WithClock(tickingClock())
}

func countCurrent(t *testing.T, db *gorm.DB, table, id string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Where("id = ? AND valid_to = ?", id, models.Infinite).Count(&n).Error)
	return n
}

func TestCategoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)
	repo := NewCategoryRepository(store)

	c := &models.Category{Name: "Electronics", Description: "gadgets"}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, uint(1), c.Version)
	assert.True(t, c.Current())
	assert.Equal(t, constants.CategoryActive, c.Status)

	byID, err := repo.FindCurrentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics", byID.Name)

	byName, err := repo.FindCurrentByName(ctx, "Electronics")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	_, err = repo.FindCurrentByName(ctx, "Books")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, int64(1), countCurrent(t, db, "categories", c.ID))
}

func TestCategoryCreateRejectsCurrentName(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)
	repo := NewCategoryRepository(store)

	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Electronics"}))
	err := repo.Create(ctx, &models.Category{Name: "Electronics"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPartialIndexKeepsCurrentNamesUnique(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)
	repo := NewCategoryRepository(store)

	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Electronics"}))

	dup := models.Category{
		Versioned: models.Opened("raw-insert", store.Now()),
		Name:      "Electronics",
		Status:    constants.CategoryActive,
	}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, isDuplicate(err))
}

func TestCloseCurrentAndInsertPreservesHistory(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)
	repo := NewCategoryRepository(store)

	original := &models.Category{Name: "Electronics", Description: "gadgets"}
	require.NoError(t, repo.Create(ctx, original))
	firstFrom := original.ValidFrom

	next := original.Revise(original.Versioned)
	next.Description = "gadgets and gizmos"
	require.NoError(t, repo.CloseCurrentAndInsert(ctx, original, &next))

	assert.Equal(t, uint(2), next.Version)
	assert.True(t, next.Current())
	assert.False(t, original.Current())
	assert.True(t, original.ValidTo.Equal(next.ValidFrom))

	versions, err := repo.History(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	assert.Equal(t, uint(2), versions[0].Version)
	assert.Equal(t, "gadgets and gizmos", versions[0].Description)

	old := versions[1]
	assert.Equal(t, uint(1), old.Version)
	assert.Equal(t, "gadgets", old.Description)
	assert.Equal(t, "Electronics", old.Name)
	assert.True(t, old.ValidFrom.Equal(firstFrom))
	assert.False(t, old.Current())

	assert.Equal(t, int64(1), countCurrent(t, db, "categories", original.ID))

	asOf, err := repo.FindAsOf(ctx, original.ID, firstFrom)
	require.NoError(t, err)
	assert.Equal(t, "gadgets", asOf.Description)
}

func TestConcurrentCloseOfSameVersionConflicts(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)
	repo := NewTaskRepository(store)

	task := &models.Task{
		Name:       "write report",
		Deadline:   store.Now().Add(24 * time.Hour),
		Priority:   constants.PriorityHigh,
		ReportedBy: "adriBana",
	}
	require.NoError(t, repo.Create(ctx, task))

	stale, err := repo.FindCurrentByID(ctx, task.ID)
	require.NoError(t, err)

	const writers = 2
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			existing := *stale
			next := existing.Revise(existing.Versioned)
			next.Name = []string{"first", "second"}[i]
			errs[i] = repo.CloseCurrentAndInsert(ctx, &existing, &next)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrConcurrentUpdate)
		assert.True(t, apperrors.IsRetryable(err))
	}
	assert.Equal(t, 1, succeeded)

	assert.Equal(t, int64(1), countCurrent(t, db, "tasks", task.ID))
	versions, err := repo.History(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestFindCurrentByIDLookupModes(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)
	repo := NewCategoryRepository(store)

	c := &models.Category{Name: "Archive"}
	require.NoError(t, repo.Create(ctx, c))

	tombstone := c.Revise(c.Versioned)
	tombstone.Status = constants.CategoryDeleted
	require.NoError(t, repo.CloseCurrentAndInsert(ctx, c, &tombstone))

	_, err := repo.FindCurrentByID(ctx, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	found, err := repo.FindCurrentByID(ctx, c.ID, IncludeDeleted())
	require.NoError(t, err)
	assert.True(t, found.Deleted())

	// the name is free again once its holder is deleted
	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Archive"}))
}

func TestListCurrentFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)
	repo := NewCategoryRepository(store)

	for _, name := range []string{"Electronics", "Books", "Electric Tools"} {
		require.NoError(t, repo.Create(ctx, &models.Category{Name: name}))
	}

	filter, err := search.CategorySchema.Parse([]resources.Criteria{
		{Key: "name", Operation: "LIKE", Value: "elec"},
	})
	require.NoError(t, err)

	req := resources.PageRequest{Page: 0, Size: 10, SortBy: "name", Ascending: true}
	items, total, err := repo.ListCurrent(ctx, filter, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Electric Tools", items[0].Name)
	assert.Equal(t, "Electronics", items[1].Name)

	again, _, err := repo.ListCurrent(ctx, filter, req)
	require.NoError(t, err)
	assert.Equal(t, items, again)

	paged, total, err := repo.ListCurrent(ctx, search.All(), resources.PageRequest{Page: 1, Size: 2, SortBy: "name", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
	assert.Equal(t, "Electronics", paged[0].Name)

	_, _, err = repo.ListCurrent(ctx, search.All(), resources.PageRequest{Size: 10, SortBy: "password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSearchCriteria)
}

func TestTaskCategoryReferenceFollowsCurrentVersion(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)
	categories := NewCategoryRepository(store)
	tasks := NewTaskRepository(store)

	c := &models.Category{Name: "Home"}
	require.NoError(t, categories.Create(ctx, c))

	task := &models.Task{Name: "paint fence", Deadline: store.Now().Add(time.Hour), Priority: constants.PriorityLow, ReportedBy: "mareNowa"}
	task.AttachCategory(c)
	require.NoError(t, tasks.Create(ctx, task))

	renamed := c.Revise(c.Versioned)
	renamed.Name = "House"
	require.NoError(t, categories.CloseCurrentAndInsert(ctx, c, &renamed))

	found, err := tasks.FindCurrentByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "House", found.CategoryName())

	filter, err := search.TaskSchema.Parse([]resources.Criteria{{Key: "category.name", Operation: "=", Value: "House"}})
	require.NoError(t, err)
	listed, total, err := tasks.ListCurrent(ctx, filter, resources.PageRequest{Size: 5, SortBy: "deadline"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	assert.Equal(t, task.ID, listed[0].ID)

	byCategory, err := tasks.ListCurrentByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	before, err := tasks.FindAsOf(ctx, task.ID, task.ValidFrom)
	require.NoError(t, err)
	assert.Equal(t, "Home", before.CategoryName())
}

func TestWithinTxRollsBackEveryStep(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)
	repo := NewCategoryRepository(store)

	c := &models.Category{Name: "Garden"}
	require.NoError(t, repo.Create(ctx, c))

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		next := c.Revise(c.Versioned)
		next.Description = "never committed"
		if err := repo.CloseCurrentAndInsert(ctx, c, &next); err != nil {
			return err
		}
		return apperrors.Conflict("abort")
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	versions, err := repo.History(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.Equal(t, int64(1), countCurrent(t, db, "categories", c.ID))
	assert.True(t, c.Current(), "rolled back close must leave the read version current")

	next := c.Revise(c.Versioned)
	next.Description = "second try"
	require.NoError(t, repo.CloseCurrentAndInsert(ctx, c, &next))
	assert.False(t, c.Current())
	assert.Equal(t, uint(2), next.Version)
}

func TestWithinTxReportsLockContentionAsConcurrentUpdate(t *testing.T) {
	_, store := setupStore(t)

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("failed to close Task version: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
	})
	assert.ErrorIs(t, err, apperrors.ErrConcurrentUpdate)
	assert.True(t, apperrors.IsRetryable(err))

	err = store.WithinTx(context.Background(), func(ctx context.Context) error {
		return apperrors.NotFound("Task %q not exists", "x")
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
