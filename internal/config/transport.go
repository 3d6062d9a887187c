package config

import "time"

type TransportConfig struct {
	ExpoPushURL     string        `env:"EXPO_PUSH_URL"`
	ExpoAccessToken string        `env:"EXPO_ACCESS_TOKEN"`
	Timeout         time.Duration `env:"PUSH_TIMEOUT" envDefault:"10s"`

	GCloudProjectID  string `env:"GCLOUD_PROJECT_ID"`
	GCloudLocationID string `env:"GCLOUD_LOCATION_ID"`
	GCloudQueueID    string `env:"GCLOUD_QUEUE_ID"`
	GCloudTargetURL  string `env:"GCLOUD_TARGET_URL"`
}

func LoadTransportConfig() (*TransportConfig, error) {
	cfg := &TransportConfig{}
	if err := parse(cfg, "transport"); err != nil {
		return nil, err
	}
	return cfg, nil
}

type ProfileConfig struct {
	ServiceURL string `env:"PROFILE_SERVICE_URL"`
}

type BillingConfig struct {
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Exchange    string `env:"BILLING_EXCHANGE" envDefault:"billing.events"`
	Queue       string `env:"BILLING_QUEUE" envDefault:"notification-scheduler.billing"`
}
