package service

import (
	"context"
	"fmt"

	"github.com/fadilmartias/teambuilder/internal/config"
	"github.com/fadilmartias/teambuilder/internal/interview"
	"go.uber.org/zap"
)

// NewOracle builds the completion backend named by ORACLE_PROVIDER.
func NewOracle(ctx context.Context, cfg *config.OracleConfig, log *zap.Logger) (interview.Oracle, error) {
	switch cfg.Provider {
	case config.OracleGemini:
		return NewGeminiService(ctx, cfg.Timeout, log)
	case config.OracleOpenRouter:
		return NewOpenRouterService(cfg.Timeout, log)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
