package config

import "time"

type SweepConfig struct {
	Interval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	BatchSize   int           `env:"SWEEP_BATCH_SIZE" envDefault:"500"`
	Concurrency int           `env:"SWEEP_CONCURRENCY" envDefault:"16"`
}

func LoadSweepConfig() (*SweepConfig, error) {
	cfg := &SweepConfig{}
	if err := parse(cfg, "sweep"); err != nil {
		return nil, err
	}
	return cfg, nil
}

type ScheduleConfig struct {
	Concurrency       int           `env:"SCHEDULE_CONCURRENCY" envDefault:"8"`
	HostCallTimeout   time.Duration `env:"HOST_CALL_TIMEOUT" envDefault:"5s"`
	HostRatePerSecond float64       `env:"HOST_RATE_PER_SECOND" envDefault:"20"`
	HostBurst         int           `env:"HOST_BURST" envDefault:"5"`
}

func LoadScheduleConfig() (*ScheduleConfig, error) {
	cfg := &ScheduleConfig{}
	if err := parse(cfg, "schedule"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ScheduleConfig) Validate() error {
	if c.Concurrency <= 0 || c.HostBurst <= 0 || c.HostRatePerSecond <= 0 || c.HostCallTimeout <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

func (c *SweepConfig) Validate() error {
	if c.Concurrency <= 0 || c.BatchSize <= 0 || c.Interval <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}
