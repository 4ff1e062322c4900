package crawl

import "exchangestats/lib/telemetry"

var tracer = telemetry.Tracer("exchangestats.internal.crawl")
