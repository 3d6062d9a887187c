package config

const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type StorageConfig struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"redis"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

func LoadStorageConfig() (*StorageConfig, error) {
	cfg := &StorageConfig{}
	if err := parse(cfg, "storage"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case StorageRedis, StorageMemory:
		return nil
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return ErrPostgresDSNMissing
		}
		return nil
	default:
		return ErrUnknownStorageBackend
	}
}
