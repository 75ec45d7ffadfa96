package courtfinder

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const library_name = "services/courtfinder"

var tracer = otel.Tracer(library_name)
var meter = otel.Meter(library_name)

var searchRequests, _ = meter.Int64Counter(
	"courtfinder.search.requests",
	metric.WithDescription("search requests sent, by outcome"),
)
var searchDuration, _ = meter.Float64Histogram(
	"courtfinder.search.duration",
	metric.WithDescription("duration of a single search request"),
	metric.WithUnit("s"),
)
