package dto

import (
	"time"

	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=255"`
	Description    string   `json:"description" validate:"max=4000"`
	RequiredSkills []string `json:"required_skills" validate:"required,min=1,max=20,dive,required,max=64"`
}

func (r *CreateProjectRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

type MemberDTO struct {
	ID              uuid.UUID      `json:"id"`
	ProjectID       uuid.UUID      `json:"project_id"`
	UserID          string         `json:"user_id"`
	InterviewStatus string         `json:"interview_status"`
	SkillScores     map[string]int `json:"skill_scores"`
	WorkStyle       string         `json:"work_style,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type ProjectDTO struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	OwnerID        string      `json:"owner_id"`
	RequiredSkills []string    `json:"required_skills"`
	Members        []MemberDTO `json:"members,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

func NewMemberDTO(m *model.ProjectMember) MemberDTO {
	scores := m.SkillScores
	if scores == nil {
		scores = map[string]int{}
	}
	return MemberDTO{
		ID:              m.ID,
		ProjectID:       m.ProjectID,
		UserID:          m.UserID,
		InterviewStatus: m.InterviewStatus,
		SkillScores:     scores,
		WorkStyle:       m.WorkStyle,
		CompletedAt:     m.CompletedAt,
		CreatedAt:       m.CreatedAt,
	}
}

func NewProjectDTO(p *model.Project) ProjectDTO {
	out := ProjectDTO{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		OwnerID:        p.OwnerID,
		RequiredSkills: p.RequiredSkills,
		CreatedAt:      p.CreatedAt,
	}
	for i := range p.Members {
		out.Members = append(out.Members, NewMemberDTO(&p.Members[i]))
	}
	return out
}
