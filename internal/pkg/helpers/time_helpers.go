package helpers

import (
	"time"

	"github.com/yigit/campuslink/internal/pkg/logger"
)

// DurationSetting parses the named setting, falling back to def when raw is empty,
// malformed or not positive.
func DurationSetting(name, raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn().Err(err).Str("setting", name).Str("value", raw).Dur("default", def).Msg("Invalid duration setting, using default")
		return def
	}
	return d
}
