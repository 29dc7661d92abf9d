package interview

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTurnState   = errors.New("invalid turn state")
	ErrOracleUnavailable  = errors.New("oracle unavailable")
	ErrInterviewCompleted = errors.New("interview already completed")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNotMember          = errors.New("caller is not this member")
)

// InvalidTurnStateError is a precondition failure detected before any
// oracle call is made.
type InvalidTurnStateError struct {
	Reason string
}

func (e *InvalidTurnStateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidTurnState, e.Reason)
}

func (e *InvalidTurnStateError) Unwrap() error { return ErrInvalidTurnState }

func invalidTurn(format string, args ...any) error {
	return &InvalidTurnStateError{Reason: fmt.Sprintf(format, args...)}
}

// OracleUnavailableError wraps a failed completion call. Callers may retry
// the whole turn; nothing was persisted.
type OracleUnavailableError struct {
	Err error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrOracleUnavailable, e.Err)
}

func (e *OracleUnavailableError) Unwrap() []error { return []error{ErrOracleUnavailable, e.Err} }

// Retryable is always true; the turn was rolled back.
func (e *OracleUnavailableError) Retryable() bool { return true }

// ViolationKind classifies a dropped field. Violations never fail a turn.
type ViolationKind string

const (
	ViolationScoreOutOfRange     ViolationKind = "score_out_of_range"
	ViolationScoreNotNumeric     ViolationKind = "score_not_numeric"
	ViolationDuplicateScore      ViolationKind = "duplicate_score"
	ViolationUnknownSkill        ViolationKind = "unknown_skill"
	ViolationUnexpectedScore     ViolationKind = "unexpected_score"
	ViolationScoreMismatch       ViolationKind = "score_mismatch"
	ViolationMissingScore        ViolationKind = "missing_score"
	ViolationEarlyWorkStyle      ViolationKind = "early_work_style"
	ViolationDuplicateWorkStyle  ViolationKind = "duplicate_work_style"
	ViolationUnexpectedComplete  ViolationKind = "unexpected_completion"
	ViolationUnstructuredReply   ViolationKind = "unstructured_reply"
	ViolationMissingResponseText ViolationKind = "missing_response_text"
)

type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Skill  string        `json:"skill,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

func (v Violation) String() string {
	if v.Skill == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", v.Kind, v.Skill, v.Detail)
}
