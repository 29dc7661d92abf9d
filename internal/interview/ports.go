package interview

import "context"

// Member is the slice of membership data a turn needs.
type Member struct {
	MemberID       string
	UserID         string
	ProjectID      string
	ProjectContext string
	// ProjectSkills is the project's current required-skill list.
	ProjectSkills []string
	// PinnedSkills is the skill set frozen at the member's first turn.
	PinnedSkills []string
}

type MemberDirectory interface {
	LoadMember(ctx context.Context, memberID string) (Member, error)
	PinRequiredSkills(ctx context.Context, memberID string, skills []string) error
}

type ProfileStore interface {
	// LoadProfile returns an empty profile with StatusPending when the
	// member has none yet.
	LoadProfile(ctx context.Context, memberID string) (SkillProfile, Status, error)
	SaveProfile(ctx context.Context, memberID string, profile SkillProfile, status Status) error
}

type HistoryStore interface {
	LoadHistory(ctx context.Context, memberID string) ([]ConversationTurn, error)
	AppendTurns(ctx context.Context, memberID string, turns []ConversationTurn) error
}

type Store interface {
	MemberDirectory
	ProfileStore
	HistoryStore
}

// TurnRunner runs fn with exclusive access to one member's interview. All
// writes made through store commit together when fn returns nil and are
// discarded otherwise.
type TurnRunner interface {
	WithinMemberTurn(ctx context.Context, memberID string, fn func(ctx context.Context, store Store) error) error
}

// Oracle is the text-completion model. Retries, if any, are its own concern.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EventSink receives the interview's structured events.
type EventSink interface {
	ActionSelected(memberID string, turn int, d Decision)
	ProtocolViolation(memberID string, v Violation)
}

type nopSink struct{}

func (nopSink) ActionSelected(string, int, Decision) {}
func (nopSink) ProtocolViolation(string, Violation)  {}

// NopEventSink discards every event.
func NopEventSink() EventSink { return nopSink{} }
