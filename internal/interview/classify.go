package interview

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxWorkStyleRunes = 64

var (
	numberTokenRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	bareNumberRe  = regexp.MustCompile(`^[\s\d.,/+-]*$`)
	negativeRe    = regexp.MustCompile(`(?i)(?:[-−]|\bminus\s*|\bnegative\s*)$`)
)

// Classify picks the single next action from conversation state. The
// model is never asked which skill comes next: the first unscored skill in
// declared order always wins.
func Classify(state TurnState) (Decision, error) {
	if err := validateTurnState(state); err != nil {
		return Decision{}, err
	}
	required := state.RequiredSkills
	profile := state.Profile

	if state.IsFirstTurn {
		target, ok := profile.FirstMissing(required)
		if !ok {
			target = required[0]
		}
		return Decision{Action: ActionAskFirst, Target: target}, nil
	}

	if missing, ok := profile.FirstMissing(required); ok {
		lastAI, _ := lastAITurn(state.History)
		if mentionsSkill(lastAI.Content, missing) {
			if score, ok := ParseScoreAnswer(state.UserInput); ok {
				d := Decision{
					Action:   ActionSaveAndAskNext,
					Awaiting: missing,
					Save:     &SkillScore{Skill: missing, Score: score},
				}
				// An empty Target after the last skill means the work
				// style is asked next.
				if next, more := nextMissingAfter(profile, required, missing); more {
					d.Target = next
				} else if profile.HasWorkStyle() {
					d.Action = ActionComplete
				}
				return d, nil
			}
		}
		return Decision{Action: ActionClarify, Target: missing, Awaiting: missing}, nil
	}

	if !profile.HasWorkStyle() {
		if _, asked := lastAITurn(state.History); asked {
			if answer := NormalizeWorkStyle(state.UserInput); answer != "" && !bareNumberRe.MatchString(answer) {
				return Decision{Action: ActionComplete, WorkStyle: answer}, nil
			}
		}
		return Decision{Action: ActionAskWorkStyle}, nil
	}

	return Decision{Action: ActionComplete}, nil
}

func validateTurnState(state TurnState) error {
	if len(state.RequiredSkills) == 0 {
		return invalidTurn("required skill set is empty")
	}
	seen := make(map[string]bool, len(state.RequiredSkills))
	for i, skill := range state.RequiredSkills {
		if strings.TrimSpace(skill) == "" {
			return invalidTurn("required skill %d is blank", i)
		}
		key := strings.ToLower(strings.TrimSpace(skill))
		if seen[key] {
			return invalidTurn("required skill %q listed twice", skill)
		}
		seen[key] = true
	}
	if state.IsFirstTurn && len(state.History) > 0 {
		return invalidTurn("first turn requested but history has %d entries", len(state.History))
	}
	return nil
}

// ParseScoreAnswer accepts input holding exactly one whole number token on
// the 1-8 scale, e.g. "3" or "I'd say 6". "3 or 4", "4.5", "-3" and "9" are
// rejected.
func ParseScoreAnswer(input string) (int, bool) {
	spans := numberTokenRe.FindAllStringIndex(input, -1)
	if len(spans) != 1 {
		return 0, false
	}
	start, end := spans[0][0], spans[0][1]
	token := input[start:end]
	if strings.ContainsAny(token, ".,") || negativeRe.MatchString(input[:start]) {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	if err != nil || !ValidScore(n) {
		return 0, false
	}
	return n, true
}

// NormalizeWorkStyle trims and collapses whitespace and caps the length of
// a work-style tag. Template placeholders such as "<tag>" normalize to "".
func NormalizeWorkStyle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, ` ."'!`)
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return ""
	}
	if utf8.RuneCountInString(s) > maxWorkStyleRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxWorkStyleRunes]))
	}
	return s
}

func lastAITurn(history []ConversationTurn) (ConversationTurn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAI {
			return history[i], true
		}
	}
	return ConversationTurn{}, false
}

func nextMissingAfter(profile SkillProfile, required []string, saved string) (string, bool) {
	for _, skill := range required {
		if skill == saved {
			continue
		}
		if _, ok := profile.SkillScores[skill]; !ok {
			return skill, true
		}
	}
	return "", false
}

// mentionsSkill matches the skill name case-insensitively as a whole word,
// so "Go" is found in "rate Go?" but not in "good".
func mentionsSkill(text, skill string) bool {
	if text == "" || skill == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(skill) + `(?:$|[^\p{L}\p{N}])`)
	if err != nil {
		return strings.Contains(strings.ToLower(text), strings.ToLower(skill))
	}
	return re.MatchString(text)
}
