//go:build loadtest

package metrics

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"
)

var loadtestRunID = os.Getenv("LOADTEST_RUN_ID")

func appendLoadtestLabels(_ context.Context, attrs []attribute.KeyValue) []attribute.KeyValue {
	if loadtestRunID == "" {
		return attrs
	}
	return append(attrs, attribute.String("loadtest.run_id", loadtestRunID))
}
