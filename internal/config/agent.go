package config

import (
	"fmt"
	"time"
)

// AgentConfig drives the on-device agent, which schedules through the local
// notification host instead of the server sweeper.
type AgentConfig struct {
	DBPath          string        `env:"AGENT_DB_PATH" envDefault:"notifications.db"`
	DescriptorsFile string        `env:"AGENT_DESCRIPTORS_FILE" envDefault:"descriptors.json"`
	UserID          string        `env:"AGENT_USER_ID" envDefault:"local-user"`
	Timezone        string        `env:"AGENT_TIMEZONE" envDefault:"Local"`
	TrialEnd        string        `env:"AGENT_TRIAL_END"`
	NativeRepeat    bool          `env:"AGENT_NATIVE_REPEAT" envDefault:"true"`
	PollInterval    time.Duration `env:"AGENT_POLL_INTERVAL" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// TrialEndTime parses AGENT_TRIAL_END as RFC3339. An empty value means the
// device has no trial.
func (c *AgentConfig) TrialEndTime() (*time.Time, error) {
	if c.TrialEnd == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, c.TrialEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid AGENT_TRIAL_END: %w", err)
	}
	return &t, nil
}

func LoadAgentConfig() (*AgentConfig, *ScheduleConfig, error) {
	loadDotEnv()

	cfg := &AgentConfig{}
	if err := parse(cfg, "agent"); err != nil {
		return nil, nil, err
	}

	schedule, err := LoadScheduleConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := schedule.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, schedule, nil
}
