package config

import (
	"os"
	"strconv"
	"sync"
)

type LogConfig struct {
	JSON  bool
	Debug bool
}

var (
	logConfig *LogConfig
	logOnce   sync.Once
)

func LoadLogConfig() *LogConfig {
	logOnce.Do(func() {
		jsonOut, _ := strconv.ParseBool(os.Getenv("LOG_JSON"))
		debug, _ := strconv.ParseBool(os.Getenv("LOG_DEBUG"))
		logConfig = &LogConfig{
			JSON:  jsonOut || LoadAppConfig().Env == "production",
			Debug: debug,
		}
	})
	return logConfig
}
