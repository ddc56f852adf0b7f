package config

import "time"

// BoardCacheConfig defines how derived boards are written to Redis.  When
// Enabled is false or no Redis client is configured, the board is kept in
// memory only.  TTL bounds how stale a warm-started board may be.
type BoardCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadBoardCacheConfig reads BOARD_CACHE_* variables.  Defaults are used when
// variables are not set.
func LoadBoardCacheConfig() BoardCacheConfig {
	return BoardCacheConfig{
		Enabled: envBool("BOARD_CACHE_ENABLED", true),
		TTL:     envDur("BOARD_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("BOARD_CACHE_PREFIX", "board"),
	}
}
