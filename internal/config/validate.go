package config

import (
	"errors"
	"fmt"
	"time"
)

// ValidateForRun checks the settings the API server cannot start without.
func ValidateForRun(cfg *Config) error {
	var errs []error

	if _, err := time.LoadLocation(cfg.Server.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTimezone, cfg.Server.DefaultTimezone))
	}
	if cfg.Profile.ServiceURL == "" {
		errs = append(errs, ErrProfileURLMissing)
	}
	if err := cfg.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Storage.Backend == StorageRedis {
		if err := cfg.Redis.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cfg.Sweep.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sweep: %w", err))
	}
	if err := cfg.Schedule.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if cfg.Snowflake.NodeID < 0 || cfg.Snowflake.NodeID > 1023 {
		errs = append(errs, ErrInvalidSnowflakeNode)
	}

	return errors.Join(errs...)
}
