package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/teambuilder/internal/interview"
	"github.com/fadilmartias/teambuilder/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewRepository stores member profiles and interview history in
// Postgres. Each turn runs in one transaction holding an advisory lock on
// the member id, so turns for one member are serialized across processes.
type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db}
}

func (r *InterviewRepository) WithinMemberTurn(ctx context.Context, memberID string, fn func(ctx context.Context, store interview.Store) error) error {
	if _, err := uuid.Parse(memberID); err != nil {
		return interview.ErrMemberNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", memberID).Error; err != nil {
			return fmt.Errorf("lock member %s: %w", memberID, err)
		}
		return fn(ctx, &interviewStore{db: tx})
	})
}

type interviewStore struct {
	db *gorm.DB
}

func (s *interviewStore) findMember(ctx context.Context, memberID string, preloadProject bool) (*model.ProjectMember, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return nil, interview.ErrMemberNotFound
	}
	q := s.db.WithContext(ctx)
	if preloadProject {
		q = q.Preload("Project")
	}
	var m model.ProjectMember
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interview.ErrMemberNotFound
		}
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}
	return &m, nil
}

func (s *interviewStore) LoadMember(ctx context.Context, memberID string) (interview.Member, error) {
	m, err := s.findMember(ctx, memberID, true)
	if err != nil {
		return interview.Member{}, err
	}
	member := interview.Member{
		MemberID:     m.ID.String(),
		UserID:       m.UserID,
		ProjectID:    m.ProjectID.String(),
		PinnedSkills: m.InterviewSkills,
	}
	if m.Project != nil {
		member.ProjectSkills = m.Project.RequiredSkills
		member.ProjectContext = projectContext(m.Project)
	}
	return member, nil
}

func projectContext(p *model.Project) string {
	if p.Description == "" {
		return p.Name
	}
	return fmt.Sprintf("%s: %s", p.Name, p.Description)
}

func (s *interviewStore) PinRequiredSkills(ctx context.Context, memberID string, skills []string) error {
	m, err := s.findMember(ctx, memberID, false)
	if err != nil {
		return err
	}
	m.InterviewSkills = append([]string(nil), skills...)
	return s.db.WithContext(ctx).Save(m).Error
}

func (s *interviewStore) LoadProfile(ctx context.Context, memberID string) (interview.SkillProfile, interview.Status, error) {
	m, err := s.findMember(ctx, memberID, false)
	if err != nil {
		return interview.SkillProfile{}, "", err
	}
	profile := interview.NewSkillProfile()
	for skill, score := range m.SkillScores {
		profile.SkillScores[skill] = score
	}
	profile.WorkStyle = m.WorkStyle

	status := interview.Status(m.InterviewStatus)
	if status == "" {
		status = interview.StatusPending
	}
	return profile, status, nil
}

func (s *interviewStore) SaveProfile(ctx context.Context, memberID string, profile interview.SkillProfile, status interview.Status) error {
	m, err := s.findMember(ctx, memberID, false)
	if err != nil {
		return err
	}
	m.SkillScores = profile.SkillScores
	m.WorkStyle = profile.WorkStyle
	m.InterviewStatus = string(status)
	if status == interview.StatusCompleted && m.CompletedAt == nil {
		now := time.Now()
		m.CompletedAt = &now
	}
	return s.db.WithContext(ctx).Save(m).Error
}

func (s *interviewStore) LoadHistory(ctx context.Context, memberID string) ([]interview.ConversationTurn, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return nil, interview.ErrMemberNotFound
	}
	var rows []model.InterviewMessage
	if err := s.db.WithContext(ctx).Where("member_id = ?", id).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history for %s: %w", memberID, err)
	}
	turns := make([]interview.ConversationTurn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, interview.ConversationTurn{Role: interview.Role(row.Role), Content: row.Content})
	}
	return turns, nil
}

func (s *interviewStore) AppendTurns(ctx context.Context, memberID string, turns []interview.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	id, err := uuid.Parse(memberID)
	if err != nil {
		return interview.ErrMemberNotFound
	}

	var last int
	if err := s.db.WithContext(ctx).Model(&model.InterviewMessage{}).
		Where("member_id = ?", id).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return fmt.Errorf("read history sequence for %s: %w", memberID, err)
	}

	now := time.Now()
	rows := make([]model.InterviewMessage, 0, len(turns))
	for i, turn := range turns {
		rows = append(rows, model.InterviewMessage{
			MemberID:  id,
			Seq:       last + i + 1,
			Role:      string(turn.Role),
			Content:   turn.Content,
			CreatedAt: now,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}
