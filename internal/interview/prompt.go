package interview

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// promptHistoryTurns bounds how much of the conversation is quoted back.
const promptHistoryTurns = 6

//go:embed prompts/turn.tmpl
var turnTemplate string

// Prompt is the rendered instruction for one turn together with the
// decision it encodes.
type Prompt struct {
	Text     string
	Decision Decision
}

// PromptGenerator renders exactly one action per prompt. It is a pure
// function of the TurnState.
type PromptGenerator struct {
	tmpl *template.Template
}

func NewPromptGenerator() *PromptGenerator {
	tmpl := template.Must(template.New("turn").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(turnTemplate))
	return &PromptGenerator{tmpl: tmpl}
}

type promptData struct {
	ProjectContext string
	RequiredSkills []string
	Collected      []SkillScore
	Recent         []ConversationTurn
	UserInput      string
	Instruction    string
	ReplyShape     string
}

func (g *PromptGenerator) Generate(state TurnState) (Prompt, error) {
	d, err := Classify(state)
	if err != nil {
		return Prompt{}, err
	}
	text, err := g.Render(state, d)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Text: text, Decision: d}, nil
}

// Render writes the prompt for an already classified decision.
func (g *PromptGenerator) Render(state TurnState, d Decision) (string, error) {
	recent := state.History
	if len(recent) > promptHistoryTurns {
		recent = recent[len(recent)-promptHistoryTurns:]
	}
	data := promptData{
		ProjectContext: strings.TrimSpace(state.ProjectContext),
		RequiredSkills: state.RequiredSkills,
		Collected:      state.Profile.ScoredSkills(state.RequiredSkills),
		Recent:         recent,
		UserInput:      strings.TrimSpace(state.UserInput),
		Instruction:    instruction(d),
		ReplyShape:     replyShape(d),
	}
	var b strings.Builder
	if err := g.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", d.Action, err)
	}
	return b.String(), nil
}

func instruction(d Decision) string {
	const workStyleQuestion = "ask which single word best describes how they prefer to work in a team, for example collaborative, independent, leading or supporting"

	switch d.Action {
	case ActionAskFirst:
		return fmt.Sprintf("Greet the member, explain in one sentence that you will ask them to rate a few skills on the 1-8 scale, then ask them to rate their %q skill with one number from 1 to 8.", d.Target)
	case ActionSaveAndAskNext:
		if d.Target == "" {
			return fmt.Sprintf("The member rated %q as %d. Record exactly that score. All required skills are now scored. Acknowledge it, then %s.", d.Save.Skill, d.Save.Score, workStyleQuestion)
		}
		return fmt.Sprintf("The member rated %q as %d. Record exactly that score, acknowledge it in one short sentence, then ask them to rate their %q skill with one number from 1 to 8.",
			d.Save.Skill, d.Save.Score, d.Target)
	case ActionClarify:
		return fmt.Sprintf("The member's last message did not give one whole number from 1 to 8 for %q. Do not record any score. Briefly restate the scale and ask them again to rate %q with one number from 1 to 8.", d.Target, d.Target)
	case ActionAskWorkStyle:
		return fmt.Sprintf("All required skills are scored. Do not record any score. Ask the member to describe their work style: %s.", workStyleQuestion)
	case ActionComplete:
		if d.WorkStyle != "" {
			return fmt.Sprintf("The member described their work style as %q. Record it as one short lowercase tag, thank them and tell them the interview is complete.", d.WorkStyle)
		}
		return "The interview is already complete. Thank the member and tell them nothing more is needed."
	default:
		return "Thank the member for their message."
	}
}

func replyShape(d Decision) string {
	scores := map[string]int{}
	if d.Save != nil {
		scores[d.Save.Skill] = d.Save.Score
	}
	scoresJSON, _ := json.Marshal(scores)

	workStyle := "null"
	if d.Action == ActionComplete && d.WorkStyle != "" {
		tag, _ := json.Marshal(strings.ToLower(NormalizeWorkStyle(d.WorkStyle)))
		workStyle = string(tag)
	}
	complete := d.Action == ActionComplete

	return fmt.Sprintf(`{"response": "<message to the member>", "memberProfile": {"skillScores": %s, "workStyle": %s}, "isComplete": %t}`,
		scoresJSON, workStyle, complete)
}
