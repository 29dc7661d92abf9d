package usecase

import (
	"errors"
	"strings"

	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/fadilmartias/teambuilder/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDuplicateSkill = errors.New("required skills must be unique")

type ProjectStore interface {
	CreateWithOwner(project *model.Project) (*model.ProjectMember, error)
	FindByID(id string) (*model.Project, error)
	Join(projectID uuid.UUID, userID string) (*model.ProjectMember, error)
}

var _ ProjectStore = (*repository.ProjectRepository)(nil)

type ProjectUsecase struct {
	repo   ProjectStore
	logger *zap.Logger
}

func NewProjectUsecase(repo ProjectStore, logger *zap.Logger) *ProjectUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectUsecase{repo: repo, logger: logger}
}

// Create stores a project owned by ownerID and enrols the owner as its
// first member.
func (uc *ProjectUsecase) Create(ownerID, name, description string, skills []string) (*model.Project, *model.ProjectMember, error) {
	cleaned, err := normalizeSkills(skills)
	if err != nil {
		return nil, nil, err
	}
	project := &model.Project{
		Name:           strings.TrimSpace(name),
		Description:    strings.TrimSpace(description),
		OwnerID:        ownerID,
		RequiredSkills: cleaned,
	}
	owner, err := uc.repo.CreateWithOwner(project)
	if err != nil {
		return nil, nil, err
	}
	uc.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.Strings("required_skills", cleaned),
	)
	return project, owner, nil
}

func (uc *ProjectUsecase) Get(id string) (*model.Project, error) {
	return uc.repo.FindByID(id)
}

// Join is idempotent per (project, user).
func (uc *ProjectUsecase) Join(projectID, userID string) (*model.ProjectMember, error) {
	project, err := uc.repo.FindByID(projectID)
	if err != nil {
		return nil, err
	}
	return uc.repo.Join(project.ID, userID)
}

func normalizeSkills(skills []string) ([]string, error) {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			return nil, ErrDuplicateSkill
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, nil
}
