package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberRecord struct {
	member  interview.Member
	profile interview.SkillProfile
	status  interview.Status
	history []interview.ConversationTurn
}

func (r *memberRecord) clone() *memberRecord {
	out := *r
	out.member.ProjectSkills = append([]string(nil), r.member.ProjectSkills...)
	out.member.PinnedSkills = append([]string(nil), r.member.PinnedSkills...)
	out.profile = r.profile.Clone()
	out.history = append([]interview.ConversationTurn(nil), r.history...)
	return &out
}

// memRunner stages each turn on a copy and commits it only when fn
// returns nil, holding a per-member lock for the whole turn.
type memRunner struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	records map[string]*memberRecord
}

func newMemRunner() *memRunner {
	return &memRunner{locks: map[string]*sync.Mutex{}, records: map[string]*memberRecord{}}
}

func (r *memRunner) add(memberID, userID string, skills ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[memberID] = &memberRecord{
		member: interview.Member{
			MemberID:       memberID,
			UserID:         userID,
			ProjectID:      "project-1",
			ProjectContext: "Study group chat app",
			ProjectSkills:  skills,
		},
		profile: interview.NewSkillProfile(),
		status:  interview.StatusPending,
	}
}

func (r *memRunner) snapshot(memberID string) *memberRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[memberID].clone()
}

func (r *memRunner) lockFor(memberID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[memberID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[memberID] = l
	}
	return l
}

func (r *memRunner) WithinMemberTurn(ctx context.Context, memberID string, fn func(ctx context.Context, store interview.Store) error) error {
	l := r.lockFor(memberID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	staged := &stagedStore{}
	if rec, ok := r.records[memberID]; ok {
		staged.rec = rec.clone()
	}
	r.mu.Unlock()

	if err := fn(ctx, staged); err != nil {
		return err
	}
	if staged.rec != nil {
		r.mu.Lock()
		r.records[memberID] = staged.rec
		r.mu.Unlock()
	}
	return nil
}

type stagedStore struct {
	rec *memberRecord
}

func (s *stagedStore) LoadMember(_ context.Context, _ string) (interview.Member, error) {
	if s.rec == nil {
		return interview.Member{}, interview.ErrMemberNotFound
	}
	return s.rec.member, nil
}

func (s *stagedStore) PinRequiredSkills(_ context.Context, _ string, skills []string) error {
	s.rec.member.PinnedSkills = append([]string(nil), skills...)
	return nil
}

func (s *stagedStore) LoadProfile(_ context.Context, _ string) (interview.SkillProfile, interview.Status, error) {
	return s.rec.profile.Clone(), s.rec.status, nil
}

func (s *stagedStore) SaveProfile(_ context.Context, _ string, profile interview.SkillProfile, status interview.Status) error {
	s.rec.profile = profile.Clone()
	s.rec.status = status
	return nil
}

func (s *stagedStore) LoadHistory(_ context.Context, _ string) ([]interview.ConversationTurn, error) {
	return append([]interview.ConversationTurn(nil), s.rec.history...), nil
}

func (s *stagedStore) AppendTurns(_ context.Context, _ string, turns []interview.ConversationTurn) error {
	s.rec.history = append(s.rec.history, turns...)
	return nil
}

type fakeOracle struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	hook    func()
}

func (o *fakeOracle) Complete(_ context.Context, prompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prompts = append(o.prompts, prompt)
	if o.hook != nil {
		o.hook()
	}
	if o.err != nil {
		return "", o.err
	}
	i := len(o.prompts) - 1
	if i >= len(o.replies) {
		i = len(o.replies) - 1
	}
	return o.replies[i], nil
}

func (o *fakeOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts)
}

func TestTurn_FullInterview(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "JavaScript", "Git")
	oracle := &fakeOracle{replies: []string{
		`{"response":"How would you rate your JavaScript skill from 1 to 8?","memberProfile":{"skillScores":{}},"isComplete":false}`,
		`{"response":"Thanks! And how would you rate Git?","memberProfile":{"skillScores":{"JavaScript":3}},"isComplete":false}`,
		`{"response":"No problem, could you put Git on the 1 to 8 scale?","memberProfile":{"skillScores":{}},"isComplete":false}`,
		`{"response":"Great. How do you prefer to work with a team?","memberProfile":{"skillScores":{"Git":5}},"isComplete":false}`,
		"```json\n{\"response\":\"All set, thanks!\",\"memberProfile\":{\"skillScores\":{},\"workStyle\":\"collaborative\"},\"isComplete\":true}\n```",
	}}
	uc := NewInterviewUsecase(runner, oracle, nil, nil)
	ctx := context.Background()

	steps := []struct {
		input  string
		action interview.Action
		status interview.Status
	}{
		{"", interview.ActionAskFirst, interview.StatusInProgress},
		{"3", interview.ActionSaveAndAskNext, interview.StatusInProgress},
		{"oh pretty good", interview.ActionClarify, interview.StatusInProgress},
		{"5", interview.ActionSaveAndAskNext, interview.StatusInProgress},
		{"collaborative", interview.ActionComplete, interview.StatusCompleted},
	}

	var last *TurnResult
	for _, step := range steps {
		res, err := uc.Turn(ctx, TurnRequest{MemberID: "m1", CallerID: "u1", UserInput: step.input})
		require.NoError(t, err, step.input)
		assert.Equal(t, step.action, res.Action, step.input)
		assert.Equal(t, step.status, res.Status, step.input)
		last = res
	}

	assert.True(t, last.IsComplete)
	assert.Equal(t, map[string]int{"JavaScript": 3, "Git": 5}, last.Profile.SkillScores)
	assert.Equal(t, "collaborative", last.Profile.WorkStyle)
	assert.Equal(t, "All set, thanks!", last.AssistantMessage)

	rec := runner.snapshot("m1")
	assert.Equal(t, interview.StatusCompleted, rec.status)
	assert.Equal(t, []string{"JavaScript", "Git"}, rec.member.PinnedSkills)
	require.Len(t, rec.history, 9)
	assert.Equal(t, interview.RoleAI, rec.history[0].Role)
	assert.Equal(t, interview.ConversationTurn{Role: interview.RoleUser, Content: "3"}, rec.history[1])
	assert.Contains(t, oracle.prompts[0], "Study group chat app")

	_, err := uc.Turn(ctx, TurnRequest{MemberID: "m1", CallerID: "u1", UserInput: "hello?"})
	assert.ErrorIs(t, err, interview.ErrInterviewCompleted)
	assert.Equal(t, 5, oracle.calls())
}

func TestTurn_OracleFailureLeavesNoTrace(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "Go")
	uc := NewInterviewUsecase(runner, &fakeOracle{err: errors.New("503 upstream")}, nil, nil)

	_, err := uc.Turn(context.Background(), TurnRequest{MemberID: "m1", UserInput: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, interview.ErrOracleUnavailable)
	var oracleErr *interview.OracleUnavailableError
	require.ErrorAs(t, err, &oracleErr)
	assert.True(t, oracleErr.Retryable())

	rec := runner.snapshot("m1")
	assert.Empty(t, rec.history)
	assert.Empty(t, rec.member.PinnedSkills)
	assert.Equal(t, interview.StatusPending, rec.status)
}

func TestTurn_CancelledDuringOracleCallPersistsNothing(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "Go")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	oracle := &fakeOracle{
		replies: []string{`{"response":"Rate Go?","memberProfile":{"skillScores":{}},"isComplete":false}`},
		hook:    cancel,
	}
	uc := NewInterviewUsecase(runner, oracle, nil, nil)

	_, err := uc.Turn(ctx, TurnRequest{MemberID: "m1", UserInput: "hi"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, interview.ErrOracleUnavailable)
	assert.Empty(t, runner.snapshot("m1").history)
}

func TestTurn_RejectsBeforeCallingOracle(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *memRunner)
		req     TurnRequest
		wantErr error
	}{
		{
			name:    "unknown member",
			setup:   func(r *memRunner) {},
			req:     TurnRequest{MemberID: "missing"},
			wantErr: interview.ErrMemberNotFound,
		},
		{
			name:    "caller is someone else",
			setup:   func(r *memRunner) { r.add("m1", "u1", "Go") },
			req:     TurnRequest{MemberID: "m1", CallerID: "intruder"},
			wantErr: interview.ErrNotMember,
		},
		{
			name:    "project without skills",
			setup:   func(r *memRunner) { r.add("m1", "u1") },
			req:     TurnRequest{MemberID: "m1"},
			wantErr: interview.ErrInvalidTurnState,
		},
		{
			name: "skills changed after pinning",
			setup: func(r *memRunner) {
				r.add("m1", "u1", "Go")
				r.records["m1"].member.PinnedSkills = []string{"Go"}
			},
			req:     TurnRequest{MemberID: "m1", RequiredSkills: []string{"Go", "SQL"}},
			wantErr: interview.ErrInvalidTurnState,
		},
		{
			name:    "duplicate requested skills",
			setup:   func(r *memRunner) { r.add("m1", "u1", "Go") },
			req:     TurnRequest{MemberID: "m1", RequiredSkills: []string{"Go", "go"}},
			wantErr: interview.ErrInvalidTurnState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newMemRunner()
			tt.setup(runner)
			oracle := &fakeOracle{replies: []string{`{"response":"hi"}`}}
			uc := NewInterviewUsecase(runner, oracle, nil, nil)

			_, err := uc.Turn(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, oracle.calls())
		})
	}
}

func TestTurn_RequestedSkillsArePinned(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "Go")
	oracle := &fakeOracle{replies: []string{`{"response":"How would you rate Rust?","memberProfile":{"skillScores":{}},"isComplete":false}`}}
	uc := NewInterviewUsecase(runner, oracle, nil, nil)

	_, err := uc.Turn(context.Background(), TurnRequest{MemberID: "m1", RequiredSkills: []string{" Rust ", "SQL"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust", "SQL"}, runner.snapshot("m1").member.PinnedSkills)

	_, err = uc.Turn(context.Background(), TurnRequest{MemberID: "m1", UserInput: "4", RequiredSkills: []string{"Rust", "SQL"}})
	assert.NoError(t, err)
}

func TestTurn_SerializesConcurrentTurnsPerMember(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "JavaScript", "Git")
	runner.add("m2", "u2", "JavaScript", "Git")
	oracle := &fakeOracle{replies: []string{`{"response":"How would you rate JavaScript?","memberProfile":{"skillScores":{}},"isComplete":false}`}}
	uc := NewInterviewUsecase(runner, oracle, nil, nil)

	const perMember = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		actions = map[string][]interview.Action{}
	)
	for _, id := range []string{"m1", "m2"} {
		for i := 0; i < perMember; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				res, err := uc.Turn(context.Background(), TurnRequest{MemberID: id})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				actions[id] = append(actions[id], res.Action)
				mu.Unlock()
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{"m1", "m2"} {
		first := 0
		for _, a := range actions[id] {
			if a == interview.ActionAskFirst {
				first++
			}
		}
		assert.Equal(t, 1, first, id)
		assert.Len(t, runner.snapshot(id).history, perMember, id)
	}
}

func TestState_ReturnsStoredInterview(t *testing.T) {
	runner := newMemRunner()
	runner.add("m1", "u1", "Go")
	oracle := &fakeOracle{replies: []string{`{"response":"How would you rate Go?","memberProfile":{"skillScores":{}},"isComplete":false}`}}
	uc := NewInterviewUsecase(runner, oracle, nil, nil)

	_, err := uc.Turn(context.Background(), TurnRequest{MemberID: "m1", CallerID: "u1"})
	require.NoError(t, err)

	state, err := uc.State(context.Background(), "m1", "u1")
	require.NoError(t, err)
	assert.Equal(t, interview.StatusInProgress, state.Status)
	assert.Equal(t, []string{"Go"}, state.RequiredSkills)
	require.Len(t, state.History, 1)
	assert.Equal(t, "How would you rate Go?", state.History[0].Content)

	_, err = uc.State(context.Background(), "m1", "u2")
	assert.ErrorIs(t, err, interview.ErrNotMember)
}
