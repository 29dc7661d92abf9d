// Package interview implements the skill interview dialogue: deciding the
// next question from conversation state, rendering it for the language
// model, salvaging the model's reply and merging it into the member's
// skill profile.
package interview

import (
	"sort"
	"strings"
)

const (
	MinScore = 1
	MaxScore = 8
)

// ValidScore reports whether n lies on the 1-8 proficiency scale.
func ValidScore(n int) bool {
	return n >= MinScore && n <= MaxScore
}

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ConversationTurn is one entry of the append-only interview history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Status is the member's interview lifecycle as owned by the profile store.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// SkillProfile is the persisted document shape:
// {"skillScores": {"Go": 5}, "workStyle": "collaborative"}.
type SkillProfile struct {
	SkillScores map[string]int `json:"skillScores"`
	WorkStyle   string         `json:"workStyle,omitempty"`
}

func NewSkillProfile() SkillProfile {
	return SkillProfile{SkillScores: map[string]int{}}
}

// Clone returns a deep copy so callers can merge without aliasing the
// stored document.
func (p SkillProfile) Clone() SkillProfile {
	out := SkillProfile{
		SkillScores: make(map[string]int, len(p.SkillScores)),
		WorkStyle:   p.WorkStyle,
	}
	for k, v := range p.SkillScores {
		out.SkillScores[k] = v
	}
	return out
}

func (p SkillProfile) Score(skill string) (int, bool) {
	score, ok := p.SkillScores[skill]
	return score, ok
}

func (p SkillProfile) HasWorkStyle() bool {
	return strings.TrimSpace(p.WorkStyle) != ""
}

// FirstMissing returns the first skill in declared order without a score.
func (p SkillProfile) FirstMissing(required []string) (string, bool) {
	for _, skill := range required {
		if _, ok := p.SkillScores[skill]; !ok {
			return skill, true
		}
	}
	return "", false
}

func (p SkillProfile) AllSkillsScored(required []string) bool {
	_, missing := p.FirstMissing(required)
	return !missing
}

// ScoredSkills lists the collected scores in required order, followed by
// any extra keys in alphabetical order.
func (p SkillProfile) ScoredSkills(required []string) []SkillScore {
	out := make([]SkillScore, 0, len(p.SkillScores))
	seen := make(map[string]bool, len(required))
	for _, skill := range required {
		seen[skill] = true
		if score, ok := p.SkillScores[skill]; ok {
			out = append(out, SkillScore{Skill: skill, Score: score})
		}
	}
	var extra []string
	for skill := range p.SkillScores {
		if !seen[skill] {
			extra = append(extra, skill)
		}
	}
	sort.Strings(extra)
	for _, skill := range extra {
		out = append(out, SkillScore{Skill: skill, Score: p.SkillScores[skill]})
	}
	return out
}

type SkillScore struct {
	Skill string `json:"skill"`
	Score int    `json:"score"`
}

// Action is the single dialogue step selected for a turn.
type Action string

const (
	ActionAskFirst       Action = "ASK_FIRST"
	ActionSaveAndAskNext Action = "SAVE_AND_ASK_NEXT"
	ActionClarify        Action = "CLARIFY"
	ActionAskWorkStyle   Action = "ASK_WORK_STYLE"
	ActionComplete       Action = "COMPLETE"
)

// PartialProfileUpdate is what the parser salvages from one oracle reply.
// It is a delta to be merged, never the new profile itself.
type PartialProfileUpdate struct {
	MessageText  string
	ScoreUpdates map[string]int
	WorkStyle    string
	IsComplete   bool

	// Structured is true when the reply was recovered from a JSON object
	// rather than from a regex or the literal text.
	Structured bool
	// Strategy names the extraction step that produced this update.
	Strategy   string
	Violations []Violation
}

// TurnState is everything classification and prompt rendering look at.
type TurnState struct {
	MemberID       string
	RequiredSkills []string
	History        []ConversationTurn
	Profile        SkillProfile
	UserInput      string
	IsFirstTurn    bool
	ProjectContext string
}

// Decision is the outcome of classifying a turn.
type Decision struct {
	Action Action
	// Target is the skill the reply must ask about; empty when the work
	// style is asked next and on completion.
	Target string
	// Awaiting is the skill the previous AI turn was waiting on.
	Awaiting string
	// Save is the score read from the user's answer for Awaiting.
	Save *SkillScore
	// WorkStyle is the user's raw work-style answer on COMPLETE.
	WorkStyle string
}
