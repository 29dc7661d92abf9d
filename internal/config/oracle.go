package config

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	OracleGemini     = "gemini"
	OracleOpenRouter = "openrouter"
)

type OracleConfig struct {
	Provider string
	Timeout  time.Duration
}

var (
	oracleConfig *OracleConfig
	oracleOnce   sync.Once
)

func LoadOracleConfig() *OracleConfig {
	oracleOnce.Do(func() {
		provider := strings.ToLower(strings.TrimSpace(os.Getenv("ORACLE_PROVIDER")))
		if provider == "" {
			provider = OracleGemini
		}
		timeout := 60 * time.Second
		if raw := os.Getenv("ORACLE_TIMEOUT"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				log.Printf("Warning: invalid ORACLE_TIMEOUT %q, using %s", raw, timeout)
			} else {
				timeout = d
			}
		}
		oracleConfig = &OracleConfig{
			Provider: provider,
			Timeout:  timeout,
		}
	})
	return oracleConfig
}
