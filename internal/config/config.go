package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server    *ServerConfig
	Storage   *StorageConfig
	Redis     *RedisConfig
	Sweep     *SweepConfig
	Schedule  *ScheduleConfig
	Transport *TransportConfig
	Profile   *ProfileConfig
	Billing   *BillingConfig
	Snowflake *SnowflakeConfig
}

type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"8080"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultTimezone string `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
}

type SnowflakeConfig struct {
	NodeID int64 `env:"SNOWFLAKE_NODE_ID" envDefault:"1"`
}

func Load() (*Config, error) {
	loadDotEnv()

	server := &ServerConfig{}
	if err := parse(server, "server"); err != nil {
		return nil, err
	}

	storage, err := LoadStorageConfig()
	if err != nil {
		return nil, err
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	sweep, err := LoadSweepConfig()
	if err != nil {
		return nil, err
	}

	schedule, err := LoadScheduleConfig()
	if err != nil {
		return nil, err
	}

	transport, err := LoadTransportConfig()
	if err != nil {
		return nil, err
	}

	profile := &ProfileConfig{}
	if err := parse(profile, "profile"); err != nil {
		return nil, err
	}

	billing := &BillingConfig{}
	if err := parse(billing, "billing"); err != nil {
		return nil, err
	}

	snowflake := &SnowflakeConfig{}
	if err := parse(snowflake, "snowflake"); err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Storage:   storage,
		Redis:     redisConfig,
		Sweep:     sweep,
		Schedule:  schedule,
		Transport: transport,
		Profile:   profile,
		Billing:   billing,
		Snowflake: snowflake,
	}, nil
}

func parse(target any, section string) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("failed to parse %s config: %w", section, err)
	}
	return nil
}
