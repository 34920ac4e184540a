package core

import (
	"strconv"
	"time"

	"github.com/aquamarinepk/aqm"
)

// IntOrDef reads an integer setting, falling back to def when the key is
// missing or malformed.
func IntOrDef(config *aqm.Config, key string, def int) int {
	if config == nil {
		return def
	}
	raw := config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func DurationOrDef(config *aqm.Config, key string, def time.Duration) time.Duration {
	if config == nil {
		return def
	}
	raw := config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func StringOrDef(config *aqm.Config, key, def string) string {
	if config == nil {
		return def
	}
	return config.GetStringOrDef(key, def)
}
