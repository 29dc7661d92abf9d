package model

import (
	"time"

	"github.com/google/uuid"
)

// InterviewMessage is one append-only entry of a member's interview history.
type InterviewMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MemberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_interview_messages_member_seq" json:"member_id"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_interview_messages_member_seq" json:"seq"`
	Role      string    `gorm:"type:varchar(8);not null" json:"role"` // user, ai
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *InterviewMessage) TableName() string {
	return "interview_messages"
}
