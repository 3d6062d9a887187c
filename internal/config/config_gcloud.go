//go:build gcloud

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Cloud Run injects configuration directly; there is no .env to read.
func loadDotEnv() {}

// Validate requires the Cloud Tasks queue coordinates that push deliveries
// are enqueued to.
func (c *TransportConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"GCLOUD_PROJECT_ID", c.GCloudProjectID},
		{"GCLOUD_LOCATION_ID", c.GCloudLocationID},
		{"GCLOUD_QUEUE_ID", c.GCloudQueueID},
		{"GCLOUD_TARGET_URL", c.GCloudTargetURL},
	}

	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	if c.GCloudTargetURL != "" && !strings.HasPrefix(c.GCloudTargetURL, "https://") {
		errs = append(errs, errors.New("GCLOUD_TARGET_URL must use https"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("PUSH_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("transport configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
