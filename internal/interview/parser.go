package interview

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ApologyMessage is shown when nothing usable could be salvaged.
const ApologyMessage = "Sorry, I had trouble putting my answer together. Could you send your last message again?"

const (
	StrategyWholeObject   = "whole_object"
	StrategyFencedBlock   = "fenced_block"
	StrategyEmbeddedBrace = "embedded_object"
	StrategyResponseField = "response_field"
	StrategyLiteralText   = "literal_text"
	StrategyApology       = "apology"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	responseFieldRe = regexp.MustCompile(`"response"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

type extraction struct {
	name    string
	extract func(raw string) (PartialProfileUpdate, bool)
}

// ResponseParser salvages a PartialProfileUpdate from raw model output.
type ResponseParser struct {
	logger     *zap.Logger
	strategies []extraction
}

func NewResponseParser(logger *zap.Logger) *ResponseParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseParser{
		logger: logger,
		strategies: []extraction{
			{name: StrategyWholeObject, extract: parseWholeObject},
			{name: StrategyFencedBlock, extract: parseFencedBlock},
			{name: StrategyEmbeddedBrace, extract: parseEmbeddedObject},
			{name: StrategyResponseField, extract: parseResponseField},
		},
	}
}

// Parse never fails: every strategy that cannot read the input falls
// through to the next, ending with the literal text or a canned apology.
func (p *ResponseParser) Parse(raw string) PartialProfileUpdate {
	for _, s := range p.strategies {
		update, ok := p.attempt(s, raw)
		if !ok {
			continue
		}
		update.Strategy = s.name
		p.logger.Debug("oracle reply parsed",
			zap.String("strategy", s.name),
			zap.Int("score_updates", len(update.ScoreUpdates)),
			zap.Int("violations", len(update.Violations)),
		)
		return update
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		p.logger.Debug("oracle reply empty, using apology")
		return PartialProfileUpdate{
			MessageText:  ApologyMessage,
			ScoreUpdates: map[string]int{},
			Strategy:     StrategyApology,
		}
	}
	p.logger.Debug("oracle reply unstructured, using literal text")
	return PartialProfileUpdate{
		MessageText:  text,
		ScoreUpdates: map[string]int{},
		Strategy:     StrategyLiteralText,
	}
}

func (p *ResponseParser) attempt(s extraction, raw string) (update PartialProfileUpdate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("reply extraction panicked", zap.String("strategy", s.name), zap.Any("panic", r))
			update, ok = PartialProfileUpdate{}, false
		}
	}()
	return s.extract(raw)
}

func parseWholeObject(raw string) (PartialProfileUpdate, bool) {
	return parseObject(raw)
}

func parseFencedBlock(raw string) (PartialProfileUpdate, bool) {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		if update, ok := parseObject(m[1]); ok {
			return update, true
		}
	}
	return PartialProfileUpdate{}, false
}

func parseEmbeddedObject(raw string) (PartialProfileUpdate, bool) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		end := matchingBrace(raw, start)
		if end > start {
			if update, ok := parseObject(raw[start : end+1]); ok {
				return update, true
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return PartialProfileUpdate{}, false
}

func parseResponseField(raw string) (PartialProfileUpdate, bool) {
	m := responseFieldRe.FindStringSubmatch(raw)
	if m == nil {
		return PartialProfileUpdate{}, false
	}
	text := strings.TrimSpace(gjson.Parse(`"` + m[1] + `"`).String())
	if text == "" {
		return PartialProfileUpdate{}, false
	}
	return PartialProfileUpdate{MessageText: text, ScoreUpdates: map[string]int{}}, true
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseObject(text string) (PartialProfileUpdate, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !gjson.Valid(text) {
		return PartialProfileUpdate{}, false
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return PartialProfileUpdate{}, false
	}

	message := strings.TrimSpace(coerceText(root.Get("response")))
	if message == "" {
		return PartialProfileUpdate{}, false
	}

	update := PartialProfileUpdate{
		MessageText:  message,
		ScoreUpdates: map[string]int{},
		IsComplete:   coerceBool(root.Get("isComplete")),
		Structured:   true,
	}

	profile := root.Get("memberProfile")
	if profile.IsObject() {
		profile.Get("skillScores").ForEach(func(key, value gjson.Result) bool {
			skill := strings.TrimSpace(key.String())
			if skill == "" {
				return true
			}
			score, err := coerceScore(value)
			switch {
			case err != nil:
				update.Violations = append(update.Violations, Violation{
					Kind: ViolationScoreNotNumeric, Skill: skill, Detail: err.Error(),
				})
			case !ValidScore(score):
				update.Violations = append(update.Violations, Violation{
					Kind: ViolationScoreOutOfRange, Skill: skill, Detail: fmt.Sprintf("score %d outside %d-%d", score, MinScore, MaxScore),
				})
			default:
				if _, dup := update.ScoreUpdates[skill]; dup {
					update.Violations = append(update.Violations, Violation{
						Kind: ViolationDuplicateScore, Skill: skill, Detail: "repeated key in one reply",
					})
					return true
				}
				update.ScoreUpdates[skill] = score
			}
			return true
		})

		if ws := profile.Get("workStyle"); ws.Type == gjson.String {
			update.WorkStyle = NormalizeWorkStyle(ws.Str)
		}
	}

	return update, true
}

func coerceText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Null:
		return ""
	default:
		return r.Raw
	}
}

func coerceBool(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.String:
		lower := strings.ToLower(strings.TrimSpace(r.Str))
		return lower == "true" || lower == "yes"
	case gjson.Number:
		return r.Num != 0
	default:
		return false
	}
}

func coerceScore(r gjson.Result) (int, error) {
	switch r.Type {
	case gjson.Number:
		if r.Num != math.Trunc(r.Num) || math.IsInf(r.Num, 0) {
			return 0, fmt.Errorf("score %s is not a whole number", r.Raw)
		}
		if math.Abs(r.Num) > math.MaxInt32 {
			return 0, fmt.Errorf("score %s is far out of range", r.Raw)
		}
		return int(r.Num), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return 0, fmt.Errorf("score %q is not a number", r.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("score %s is not a number", r.Raw)
	}
}
