package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WholeObject(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"response": "Thanks! How about Git?", "memberProfile": {"skillScores": {"JavaScript": 3}}, "isComplete": false}`)

	assert.Equal(t, "Thanks! How about Git?", got.MessageText)
	assert.Equal(t, map[string]int{"JavaScript": 3}, got.ScoreUpdates)
	assert.False(t, got.IsComplete)
	assert.True(t, got.Structured)
	assert.Equal(t, StrategyWholeObject, got.Strategy)
	assert.Empty(t, got.Violations)
}

func TestParse_RoundTripOfReplyShape(t *testing.T) {
	p := NewResponseParser(nil)

	raw := `{"response": "All done, thank you!", "memberProfile": {"skillScores": {"Go": 7, "SQL": 2}, "workStyle": "collaborative"}, "isComplete": true}`
	got := p.Parse(raw)

	assert.Equal(t, "All done, thank you!", got.MessageText)
	assert.Equal(t, map[string]int{"Go": 7, "SQL": 2}, got.ScoreUpdates)
	assert.Equal(t, "collaborative", got.WorkStyle)
	assert.True(t, got.IsComplete)
}

func TestParse_FencedBlock(t *testing.T) {
	p := NewResponseParser(nil)

	raw := "Sure, here you go:\n```json\n{\"response\": \"Rate Git please\", \"memberProfile\": {\"skillScores\": {\"Go\": 4}}}\n```\n"
	got := p.Parse(raw)

	assert.Equal(t, StrategyFencedBlock, got.Strategy)
	assert.Equal(t, "Rate Git please", got.MessageText)
	assert.Equal(t, map[string]int{"Go": 4}, got.ScoreUpdates)
	assert.True(t, got.Structured)
}

func TestParse_EmbeddedObject(t *testing.T) {
	p := NewResponseParser(nil)

	raw := `Here is my answer {"response": "Nice {braces} inside", "isComplete": "true"} hope it helps`
	got := p.Parse(raw)

	assert.Equal(t, StrategyEmbeddedBrace, got.Strategy)
	assert.Equal(t, "Nice {braces} inside", got.MessageText)
	assert.True(t, got.IsComplete)
	assert.Empty(t, got.ScoreUpdates)
}

func TestParse_EmbeddedObjectSkipsUnusableCandidates(t *testing.T) {
	p := NewResponseParser(nil)

	raw := `notes {"foo": 1} then {"response": "second one"}`
	got := p.Parse(raw)

	assert.Equal(t, StrategyEmbeddedBrace, got.Strategy)
	assert.Equal(t, "second one", got.MessageText)
}

func TestParse_ResponseFieldFallback(t *testing.T) {
	p := NewResponseParser(nil)

	raw := `{"response": "How would you rate \"Docker\"?", "memberProfile": {"skillScores": {"Go": 5,}`
	got := p.Parse(raw)

	assert.Equal(t, StrategyResponseField, got.Strategy)
	assert.Equal(t, `How would you rate "Docker"?`, got.MessageText)
	assert.Empty(t, got.ScoreUpdates)
	assert.False(t, got.IsComplete)
	assert.False(t, got.Structured)
}

func TestParse_GarbageFallsBackToLiteralText(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse("garbage no json at all")

	assert.Equal(t, "garbage no json at all", got.MessageText)
	assert.Equal(t, StrategyLiteralText, got.Strategy)
	assert.NotNil(t, got.ScoreUpdates)
	assert.Empty(t, got.ScoreUpdates)
	assert.False(t, got.IsComplete)
	assert.False(t, got.Structured)
}

func TestParse_EmptyInputIsApology(t *testing.T) {
	p := NewResponseParser(nil)

	for _, raw := range []string{"", "   \n\t"} {
		got := p.Parse(raw)
		assert.Equal(t, ApologyMessage, got.MessageText)
		assert.Equal(t, StrategyApology, got.Strategy)
		assert.Empty(t, got.ScoreUpdates)
		assert.False(t, got.IsComplete)
	}
}

func TestParse_MissingResponseIsNotStructured(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"memberProfile": {"skillScores": {"Go": 5}}, "isComplete": true}`)

	assert.False(t, got.Structured)
	assert.False(t, got.IsComplete)
	assert.Empty(t, got.ScoreUpdates)
}

func TestParse_BlankResponseIsRejected(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"response": "   ", "memberProfile": {"skillScores": {"Go": 5}}}`)

	assert.False(t, got.Structured)
	assert.Empty(t, got.ScoreUpdates)
}

func TestParse_NonStringResponseIsCoerced(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"response": 42}`)

	assert.True(t, got.Structured)
	assert.Equal(t, "42", got.MessageText)
}

func TestParse_DropsInvalidScoresOnly(t *testing.T) {
	p := NewResponseParser(nil)

	raw := `{"response": "ok", "memberProfile": {"skillScores": {"Zero": 0, "Nine": 9, "Half": 4.5, "Word": "high", "Str": "6", "Good": 8}}}`
	got := p.Parse(raw)

	require.True(t, got.Structured)
	assert.Equal(t, map[string]int{"Str": 6, "Good": 8}, got.ScoreUpdates)

	kinds := map[string]ViolationKind{}
	for _, v := range got.Violations {
		kinds[v.Skill] = v.Kind
	}
	assert.Equal(t, map[string]ViolationKind{
		"Zero": ViolationScoreOutOfRange,
		"Nine": ViolationScoreOutOfRange,
		"Half": ViolationScoreNotNumeric,
		"Word": ViolationScoreNotNumeric,
	}, kinds)
}

func TestParse_DuplicateKeyKeepsFirst(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"response": "ok", "memberProfile": {"skillScores": {"Go": 3, "Go": 7}}}`)

	assert.Equal(t, map[string]int{"Go": 3}, got.ScoreUpdates)
	require.Len(t, got.Violations, 1)
	assert.Equal(t, ViolationDuplicateScore, got.Violations[0].Kind)
}

func TestParse_WorkStyleIsNormalized(t *testing.T) {
	p := NewResponseParser(nil)

	got := p.Parse(`{"response": "done", "memberProfile": {"workStyle": "  collaborative.  "}, "isComplete": 1}`)

	assert.Equal(t, "collaborative", got.WorkStyle)
	assert.True(t, got.IsComplete)
}

func TestMatchingBrace(t *testing.T) {
	s := `x {"a": "}", "b": {"c": "\"{"}} y`
	start := 2
	end := matchingBrace(s, start)
	require.Greater(t, end, start)
	assert.Equal(t, `{"a": "}", "b": {"c": "\"{"}}`, s[start:end+1])

	assert.Equal(t, -1, matchingBrace(`{"open": true`, 0))
}
