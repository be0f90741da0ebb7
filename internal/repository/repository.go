// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"rangefetch/internal/engine"
)

// Repository is the contract the engine's CLI-level caller consumes —
// every operation named in the external-interfaces contract, and
// nothing else. All failures are wrapped as engine.KindDatabase errors.
type Repository interface {
	InsertTask(ctx context.Context, t Task) (Task, error)
	GetTasks(ctx context.Context, filter Filter) ([]Task, error)
	GetTaskByID(ctx context.Context, id uint) (Task, bool, error)
	GetTaskByURL(ctx context.Context, url string) (Task, bool, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	RemoveTask(ctx context.Context, id uint) error
}

// GormRepository is the Repository backed by gorm.io/gorm over
// github.com/glebarez/sqlite, a cgo-free SQLite driver.
type GormRepository struct {
	db *gorm.DB
}

// Open opens the SQLite database at databaseURL, stripping a leading
// "sqlite:" prefix per the DATABASE_URL convention, and runs the schema
// migration.
func Open(databaseURL string) (*GormRepository, error) {
	path := stripSQLitePrefix(databaseURL)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, engine.NewDatabaseError("open database", err)
	}
	if err := db.AutoMigrate(&Task{}); err != nil {
		return nil, engine.NewDatabaseError("migrate schema", err)
	}
	return &GormRepository{db: db}, nil
}

func stripSQLitePrefix(databaseURL string) string {
	const prefix = "sqlite:"
	if len(databaseURL) >= len(prefix) && databaseURL[:len(prefix)] == prefix {
		return databaseURL[len(prefix):]
	}
	return databaseURL
}

func (r *GormRepository) InsertTask(ctx context.Context, t Task) (Task, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return Task{}, engine.NewDatabaseError("insert task", err)
	}
	return t, nil
}

func (r *GormRepository) GetTasks(ctx context.Context, filter Filter) ([]Task, error) {
	q := r.db.WithContext(ctx).Model(&Task{})
	switch filter {
	case FilterCompleted:
		q = q.Where("percentage_completed >= ?", float64(100))
	case FilterInProgress:
		q = q.Where("percentage_completed < ?", float64(100))
	}
	var tasks []Task
	if err := q.Order("id asc").Find(&tasks).Error; err != nil {
		return nil, engine.NewDatabaseError("list tasks", err)
	}
	return tasks, nil
}

func (r *GormRepository) GetTaskByID(ctx context.Context, id uint) (Task, bool, error) {
	var t Task
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, false, nil
		}
		return Task{}, false, engine.NewDatabaseError("get task by id", err)
	}
	return t, true, nil
}

func (r *GormRepository) GetTaskByURL(ctx context.Context, url string) (Task, bool, error) {
	var t Task
	err := r.db.WithContext(ctx).Where("file_url = ?", url).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, false, nil
		}
		return Task{}, false, engine.NewDatabaseError("get task by url", err)
	}
	return t, true, nil
}

func (r *GormRepository) UpdateTask(ctx context.Context, t Task) (Task, error) {
	err := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", t.ID).Updates(map[string]any{
		"file_name":            t.FileName,
		"file_url":             t.FileURL,
		"file_size":            t.FileSize,
		"percentage_completed": t.PercentageCompleted,
		"final_file_path":      t.FinalFilePath,
	}).Error
	if err != nil {
		return Task{}, engine.NewDatabaseError("update task", err)
	}
	return t, nil
}

func (r *GormRepository) RemoveTask(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&Task{}, id).Error; err != nil {
		return engine.NewDatabaseError("remove task", err)
	}
	return nil
}
