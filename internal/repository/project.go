package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// IProjectDirectory resolves project ids against the platform's project
// store. Projects are owned by the bug tracker proper; the messaging
// subsystem only ever asks whether one exists, so there is no model and no
// migration here.
type IProjectDirectory interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// ProjectDirectory implements IProjectDirectory against the shared database
type ProjectDirectory struct {
	db *gorm.DB
}

// NewProjectDirectory creates a new IProjectDirectory instance
func NewProjectDirectory(db *gorm.DB) IProjectDirectory {
	return &ProjectDirectory{db: db}
}

func (r *ProjectDirectory) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("projects").
		Where("id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up project: %w", err)
	}
	return count > 0, nil
}
