package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	UserID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_project_members_project_user" json:"user_id"`
	// SkillScores holds the persisted profile document's scores.
	SkillScores     map[string]int `gorm:"type:jsonb;serializer:json" json:"skill_scores"`
	WorkStyle       string         `gorm:"type:varchar(64)" json:"work_style,omitempty"`
	InterviewSkills []string       `gorm:"type:jsonb;serializer:json" json:"interview_skills,omitempty"`
	InterviewStatus string         `gorm:"type:varchar(20);not null;default:PENDING" json:"interview_status"` // PENDING, IN_PROGRESS, COMPLETED
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (m *ProjectMember) TableName() string {
	return "project_members"
}
