package extract

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/extractor/internal/extract"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
