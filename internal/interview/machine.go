package interview

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Outcome is the state after one oracle reply has been applied.
type Outcome struct {
	Decision Decision
	Profile  SkillProfile
	Message  string
	// Advanced is true when the reply verified the state change the
	// decision called for. When false the profile is unchanged and the
	// same step is classified again next turn.
	Advanced   bool
	IsComplete bool
	Violations []Violation
}

// Merge unions update into current. Scores already present are never
// overwritten, out-of-range scores and skills outside required are
// dropped, and the work style is taken only once every required skill is
// scored. Merging the same update twice is a no-op the second time.
func Merge(current SkillProfile, required []string, update PartialProfileUpdate) (SkillProfile, []Violation) {
	merged := current.Clone()
	var violations []Violation

	known := make(map[string]bool, len(required))
	for _, skill := range required {
		known[skill] = true
	}

	skills := make([]string, 0, len(update.ScoreUpdates))
	for skill := range update.ScoreUpdates {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	for _, skill := range skills {
		score := update.ScoreUpdates[skill]
		switch {
		case !ValidScore(score):
			violations = append(violations, Violation{
				Kind: ViolationScoreOutOfRange, Skill: skill, Detail: fmt.Sprintf("score %d outside %d-%d", score, MinScore, MaxScore),
			})
		case len(known) > 0 && !known[skill]:
			violations = append(violations, Violation{
				Kind: ViolationUnknownSkill, Skill: skill, Detail: "skill is not required by this interview",
			})
		default:
			if existing, ok := merged.SkillScores[skill]; ok {
				if existing != score {
					violations = append(violations, Violation{
						Kind: ViolationDuplicateScore, Skill: skill, Detail: fmt.Sprintf("already scored %d, ignoring %d", existing, score),
					})
				}
				continue
			}
			merged.SkillScores[skill] = score
		}
	}

	if ws := NormalizeWorkStyle(update.WorkStyle); ws != "" {
		switch {
		case merged.HasWorkStyle():
			if merged.WorkStyle != ws {
				violations = append(violations, Violation{
					Kind: ViolationDuplicateWorkStyle, Detail: fmt.Sprintf("already %q, ignoring %q", merged.WorkStyle, ws),
				})
			}
		case !merged.AllSkillsScored(required):
			violations = append(violations, Violation{
				Kind: ViolationEarlyWorkStyle, Detail: fmt.Sprintf("ignoring %q before all skills are scored", ws),
			})
		default:
			merged.WorkStyle = ws
		}
	}

	return merged, violations
}

// Apply reconciles a parsed reply with the decision it answers. Only the
// score the decision saved is accepted, and only when the reply echoes
// it; anything else the model volunteered is dropped as a violation.
func Apply(d Decision, required []string, current SkillProfile, update PartialProfileUpdate) Outcome {
	out := Outcome{
		Decision:   d,
		Profile:    current.Clone(),
		Message:    update.MessageText,
		Violations: append([]Violation(nil), update.Violations...),
	}

	if !update.Structured {
		out.Violations = append(out.Violations, Violation{
			Kind: ViolationUnstructuredReply, Detail: fmt.Sprintf("reply recovered via %s", update.Strategy),
		})
		return out
	}

	delta := PartialProfileUpdate{ScoreUpdates: map[string]int{}}
	echoed := false

	skills := make([]string, 0, len(update.ScoreUpdates))
	for skill := range update.ScoreUpdates {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	for _, skill := range skills {
		score := update.ScoreUpdates[skill]
		if d.Save != nil && skill == d.Save.Skill {
			echoed = true
			if score != d.Save.Score {
				out.Violations = append(out.Violations, Violation{
					Kind: ViolationScoreMismatch, Skill: skill, Detail: fmt.Sprintf("member answered %d, reply said %d", d.Save.Score, score),
				})
			}
			continue
		}
		if existing, ok := current.SkillScores[skill]; ok {
			if existing != score {
				out.Violations = append(out.Violations, Violation{
					Kind: ViolationDuplicateScore, Skill: skill, Detail: fmt.Sprintf("already scored %d, ignoring %d", existing, score),
				})
			}
			continue
		}
		kind := ViolationUnexpectedScore
		if !contains(required, skill) {
			kind = ViolationUnknownSkill
		}
		out.Violations = append(out.Violations, Violation{
			Kind: kind, Skill: skill, Detail: fmt.Sprintf("score %d not asked for this turn", score),
		})
	}

	out.Advanced = true
	if d.Save != nil {
		if echoed {
			delta.ScoreUpdates[d.Save.Skill] = d.Save.Score
		} else {
			out.Advanced = false
			out.Violations = append(out.Violations, Violation{
				Kind: ViolationMissingScore, Skill: d.Save.Skill, Detail: "reply did not record the member's score",
			})
		}
	}

	if d.Action == ActionComplete && !current.HasWorkStyle() {
		delta.WorkStyle = NormalizeWorkStyle(update.WorkStyle)
		if delta.WorkStyle == "" {
			delta.WorkStyle = d.WorkStyle
		}
	} else if update.WorkStyle != "" && !current.HasWorkStyle() {
		out.Violations = append(out.Violations, Violation{
			Kind: ViolationEarlyWorkStyle, Detail: fmt.Sprintf("work style %q not asked for this turn", update.WorkStyle),
		})
	}

	merged, violations := Merge(current, required, delta)
	out.Violations = append(out.Violations, violations...)
	if out.Advanced {
		out.Profile = merged
	}

	out.IsComplete = d.Action == ActionComplete && out.Profile.AllSkillsScored(required) && out.Profile.HasWorkStyle()
	if d.Action == ActionComplete && !out.IsComplete {
		out.Advanced = false
	}
	if update.IsComplete && !out.IsComplete {
		out.Violations = append(out.Violations, Violation{
			Kind: ViolationUnexpectedComplete, Detail: fmt.Sprintf("reply claimed completion during %s", d.Action),
		})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// StateMachine drives one turn: classify and render before the oracle
// call, parse and apply after it.
type StateMachine struct {
	generator *PromptGenerator
	parser    *ResponseParser
	events    EventSink
	logger    *zap.Logger
}

func NewStateMachine(generator *PromptGenerator, parser *ResponseParser, events EventSink, logger *zap.Logger) *StateMachine {
	if generator == nil {
		generator = NewPromptGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = NewResponseParser(logger)
	}
	if events == nil {
		events = NopEventSink()
	}
	return &StateMachine{generator: generator, parser: parser, events: events, logger: logger}
}

// Prepare classifies the turn and renders its prompt. Invalid state is
// rejected here, before any oracle call.
func (m *StateMachine) Prepare(state TurnState) (Prompt, error) {
	prompt, err := m.generator.Generate(state)
	if err != nil {
		return Prompt{}, err
	}
	m.events.ActionSelected(state.MemberID, len(state.History), prompt.Decision)
	return prompt, nil
}

// Resolve parses the oracle's raw reply and applies it to the profile.
func (m *StateMachine) Resolve(state TurnState, prompt Prompt, raw string) Outcome {
	update := m.parser.Parse(raw)
	out := Apply(prompt.Decision, state.RequiredSkills, state.Profile, update)
	for _, v := range out.Violations {
		m.events.ProtocolViolation(state.MemberID, v)
	}
	m.logger.Debug("turn resolved",
		zap.String("member_id", state.MemberID),
		zap.String("action", string(prompt.Decision.Action)),
		zap.Bool("advanced", out.Advanced),
		zap.Bool("complete", out.IsComplete),
	)
	return out
}
