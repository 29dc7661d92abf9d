package dto

import (
	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/go-playground/validator/v10"
)

type InterviewTurnRequest struct {
	Message string `json:"message" validate:"max=4000"`
	// RequiredSkills overrides the project's list; only honoured before the
	// interview's skill set is pinned.
	RequiredSkills []string `json:"required_skills,omitempty" validate:"omitempty,max=20,dive,required,max=64"`
}

func (r *InterviewTurnRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

type InterviewTurnResponse struct {
	AssistantMessage string                 `json:"assistant_message"`
	Profile          interview.SkillProfile `json:"profile"`
	IsComplete       bool                   `json:"is_complete"`
	Action           interview.Action       `json:"action"`
	Status           interview.Status       `json:"status"`
}

type InterviewStateResponse struct {
	MemberID       string                       `json:"member_id"`
	RequiredSkills []string                     `json:"required_skills"`
	Profile        interview.SkillProfile       `json:"profile"`
	Status         interview.Status             `json:"status"`
	History        []interview.ConversationTurn `json:"history"`
}
