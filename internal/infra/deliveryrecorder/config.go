package deliveryrecorder

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Disabled bool `env:"DELIVERY_RESULTS_DISABLED" envDefault:"false"`

	InfluxDBURL    string `env:"INFLUXDB_URL" envDefault:"http://localhost:8086"`
	InfluxDBToken  string `env:"INFLUXDB_TOKEN"`
	InfluxDBOrg    string `env:"INFLUXDB_ORG"`
	InfluxDBBucket string `env:"INFLUXDB_BUCKET" envDefault:"notification_deliveries"`

	BigQueryProjectID string `env:"BIGQUERY_PROJECT_ID"`
	BigQueryDataset   string `env:"BIGQUERY_DATASET" envDefault:"notification_deliveries"`
	BigQueryTable     string `env:"BIGQUERY_TABLE" envDefault:"deliveries"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse delivery recorder config: %w", err)
	}
	return cfg, nil
}
