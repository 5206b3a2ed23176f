package reconciler

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	// Cron expressions (standard five-field syntax).
	ChallengeExpirySchedule string `mapstructure:"challenge-expiry-schedule"`
	StreakSweepSchedule     string `mapstructure:"streak-sweep-schedule"`
	LeaderboardSchedule     string `mapstructure:"leaderboard-schedule"`

	// PageSize is the fixed batch size of every sweep; each page is one
	// transaction.
	PageSize int64 `mapstructure:"page-size"`

	// LeaderboardSize is how many rows a snapshot holds.
	LeaderboardSize int64 `mapstructure:"leaderboard-size"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("reconciler"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load reconciler config: %w", err)
		}
	}

	if cfg.ChallengeExpirySchedule == "" {
		cfg.ChallengeExpirySchedule = "0 * * * *" // hourly
	}
	if cfg.StreakSweepSchedule == "" {
		cfg.StreakSweepSchedule = "15 0 * * *" // daily, after midnight UTC
	}
	if cfg.LeaderboardSchedule == "" {
		cfg.LeaderboardSchedule = "*/30 * * * *"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 100
	}

	return cfg, nil
}
