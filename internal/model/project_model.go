package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	OwnerID        string          `gorm:"type:varchar(255);index" json:"owner_id"`
	RequiredSkills []string        `gorm:"type:jsonb;serializer:json" json:"required_skills"`
	Members        []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Project) TableName() string {
	return "projects"
}
