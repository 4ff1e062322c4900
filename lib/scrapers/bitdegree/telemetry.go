package bitdegree

import "exchangestats/lib/telemetry"

var tracer = telemetry.Tracer("exchangestats.lib.scrapers.bitdegree")
