package config

import "errors"

var (
	ErrRedisAddrMissing      = errors.New("REDIS_ADDR is required")
	ErrPostgresDSNMissing    = errors.New("POSTGRES_DSN is required for the postgres backend")
	ErrUnknownStorageBackend = errors.New("STORAGE_BACKEND must be redis, postgres or memory")
	ErrInvalidTimezone       = errors.New("DEFAULT_TIMEZONE is not a known IANA timezone")
	ErrProfileURLMissing     = errors.New("PROFILE_SERVICE_URL is required")
	ErrInvalidSnowflakeNode  = errors.New("SNOWFLAKE_NODE_ID must be between 0 and 1023")
	ErrInvalidConcurrency    = errors.New("concurrency settings must be positive")
)
