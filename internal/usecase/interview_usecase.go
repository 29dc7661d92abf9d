package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/fadilmartias/teambuilder/internal/interview"
	"go.uber.org/zap"
)

type TurnRequest struct {
	MemberID string
	// CallerID is the authenticated user; empty skips the ownership check.
	CallerID       string
	UserInput      string
	RequiredSkills []string
}

type TurnResult struct {
	AssistantMessage string
	Profile          interview.SkillProfile
	IsComplete       bool
	Action           interview.Action
	Status           interview.Status
}

type InterviewState struct {
	MemberID       string
	RequiredSkills []string
	Profile        interview.SkillProfile
	Status         interview.Status
	History        []interview.ConversationTurn
}

// InterviewUsecase runs interview turns. Every turn reads and writes the
// member's state inside one TurnRunner call, so an oracle failure or a
// cancelled request leaves nothing behind.
type InterviewUsecase struct {
	runner  interview.TurnRunner
	oracle  interview.Oracle
	machine *interview.StateMachine
	logger  *zap.Logger
}

func NewInterviewUsecase(runner interview.TurnRunner, oracle interview.Oracle, machine *interview.StateMachine, logger *zap.Logger) *InterviewUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if machine == nil {
		machine = interview.NewStateMachine(nil, nil, nil, logger)
	}
	return &InterviewUsecase{runner: runner, oracle: oracle, machine: machine, logger: logger}
}

func (uc *InterviewUsecase) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *TurnResult
	err := uc.runner.WithinMemberTurn(ctx, req.MemberID, func(ctx context.Context, store interview.Store) error {
		member, err := authorize(ctx, store, req.MemberID, req.CallerID)
		if err != nil {
			return err
		}

		profile, status, err := store.LoadProfile(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if status == interview.StatusCompleted {
			return interview.ErrInterviewCompleted
		}

		required, err := resolveSkills(member, req.RequiredSkills)
		if err != nil {
			return err
		}

		history, err := store.LoadHistory(ctx, req.MemberID)
		if err != nil {
			return err
		}

		state := interview.TurnState{
			MemberID:       req.MemberID,
			RequiredSkills: required,
			History:        history,
			Profile:        profile,
			UserInput:      req.UserInput,
			IsFirstTurn:    len(history) == 0,
			ProjectContext: member.ProjectContext,
		}
		prompt, err := uc.machine.Prepare(state)
		if err != nil {
			return err
		}

		raw, err := uc.oracle.Complete(ctx, prompt.Text)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			uc.logger.Warn("oracle call failed",
				zap.String("member_id", req.MemberID),
				zap.String("action", string(prompt.Decision.Action)),
				zap.Error(err),
			)
			return &interview.OracleUnavailableError{Err: err}
		}

		out := uc.machine.Resolve(state, prompt, raw)

		next := interview.StatusInProgress
		if out.IsComplete {
			next = interview.StatusCompleted
		}

		if len(member.PinnedSkills) == 0 {
			if err := store.PinRequiredSkills(ctx, req.MemberID, required); err != nil {
				return err
			}
		}
		if err := store.SaveProfile(ctx, req.MemberID, out.Profile, next); err != nil {
			return err
		}

		var turns []interview.ConversationTurn
		if strings.TrimSpace(req.UserInput) != "" {
			turns = append(turns, interview.ConversationTurn{Role: interview.RoleUser, Content: req.UserInput})
		}
		turns = append(turns, interview.ConversationTurn{Role: interview.RoleAI, Content: out.Message})
		if err := store.AppendTurns(ctx, req.MemberID, turns); err != nil {
			return err
		}

		result = &TurnResult{
			AssistantMessage: out.Message,
			Profile:          out.Profile,
			IsComplete:       out.IsComplete,
			Action:           prompt.Decision.Action,
			Status:           next,
		}
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			uc.logger.Error("interview turn failed", zap.String("member_id", req.MemberID), zap.Error(err))
		}
		return nil, err
	}

	if result.IsComplete {
		uc.logger.Info("interview completed",
			zap.String("member_id", req.MemberID),
			zap.Int("skills", len(result.Profile.SkillScores)),
			zap.String("work_style", result.Profile.WorkStyle),
		)
	}
	return result, nil
}

// State returns the member's stored profile, status and history.
func (uc *InterviewUsecase) State(ctx context.Context, memberID, callerID string) (*InterviewState, error) {
	var state *InterviewState
	err := uc.runner.WithinMemberTurn(ctx, memberID, func(ctx context.Context, store interview.Store) error {
		member, err := authorize(ctx, store, memberID, callerID)
		if err != nil {
			return err
		}
		profile, status, err := store.LoadProfile(ctx, memberID)
		if err != nil {
			return err
		}
		history, err := store.LoadHistory(ctx, memberID)
		if err != nil {
			return err
		}
		required := member.PinnedSkills
		if len(required) == 0 {
			required = member.ProjectSkills
		}
		state = &InterviewState{
			MemberID:       memberID,
			RequiredSkills: required,
			Profile:        profile,
			Status:         status,
			History:        history,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func authorize(ctx context.Context, store interview.Store, memberID, callerID string) (interview.Member, error) {
	member, err := store.LoadMember(ctx, memberID)
	if err != nil {
		return interview.Member{}, err
	}
	if callerID != "" && member.UserID != callerID {
		return interview.Member{}, interview.ErrNotMember
	}
	return member, nil
}

// resolveSkills picks the skill set for a turn. Once pinned at the first
// turn, the set cannot change for the rest of the interview.
func resolveSkills(member interview.Member, requested []string) ([]string, error) {
	requested = trimSkills(requested)
	pinned := member.PinnedSkills

	switch {
	case len(pinned) > 0 && len(requested) > 0 && !slices.Equal(pinned, requested):
		return nil, &interview.InvalidTurnStateError{Reason: "required skills changed mid-interview"}
	case len(pinned) > 0:
		return pinned, nil
	case len(requested) > 0:
		return requested, nil
	default:
		return trimSkills(member.ProjectSkills), nil
	}
}

func trimSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func isExpected(err error) bool {
	return errors.Is(err, interview.ErrInvalidTurnState) ||
		errors.Is(err, interview.ErrInterviewCompleted) ||
		errors.Is(err, interview.ErrMemberNotFound) ||
		errors.Is(err, interview.ErrNotMember) ||
		errors.Is(err, interview.ErrOracleUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
