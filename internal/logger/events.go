package logger

import (
	"github.com/fadilmartias/teambuilder/internal/interview"
	"go.uber.org/zap"
)

const (
	FieldMemberID = "member_id"
	FieldAction   = "action"
	FieldTarget   = "target"
	FieldTurn     = "turn"
)

// ZapEventSink writes interview events as structured log entries.
type ZapEventSink struct {
	logger *zap.Logger
}

func NewZapEventSink(logger *zap.Logger) *ZapEventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEventSink{logger: logger.Named("interview")}
}

func (s *ZapEventSink) ActionSelected(memberID string, turn int, d interview.Decision) {
	fields := []zap.Field{
		zap.String(FieldMemberID, memberID),
		zap.Int(FieldTurn, turn),
		zap.String(FieldAction, string(d.Action)),
	}
	if d.Target != "" {
		fields = append(fields, zap.String(FieldTarget, d.Target))
	}
	if d.Save != nil {
		fields = append(fields, zap.String("save_skill", d.Save.Skill), zap.Int("save_score", d.Save.Score))
	}
	s.logger.Info("dialogue action selected", fields...)
}

func (s *ZapEventSink) ProtocolViolation(memberID string, v interview.Violation) {
	s.logger.Warn("protocol violation",
		zap.String(FieldMemberID, memberID),
		zap.String("kind", string(v.Kind)),
		zap.String("skill", v.Skill),
		zap.String("detail", v.Detail),
	)
}
