package repository

import (
	"errors"

	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db}
}

// CreateWithOwner inserts the project and its owner's membership together.
func (r *ProjectRepository) CreateWithOwner(project *model.Project) (*model.ProjectMember, error) {
	var owner *model.ProjectMember
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		owner = &model.ProjectMember{
			ProjectID:       project.ID,
			UserID:          project.OwnerID,
			SkillScores:     map[string]int{},
			InterviewStatus: "PENDING",
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

func (r *ProjectRepository) FindByID(id string) (*model.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProjectNotFound
	}
	var project model.Project
	if err := r.db.Preload("Members").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Join returns the caller's membership, creating it on first call.
func (r *ProjectRepository) Join(projectID uuid.UUID, userID string) (*model.ProjectMember, error) {
	member := model.ProjectMember{
		ProjectID:       projectID,
		UserID:          userID,
		SkillScores:     map[string]int{},
		InterviewStatus: "PENDING",
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}
